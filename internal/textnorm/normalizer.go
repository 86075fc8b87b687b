// Package textnorm turns converter output into the single buffer the locators scan.
package textnorm

import "strings"

// PageSeparator is placed between consecutive pages.
const PageSeparator = "\n"

// Normalize returns one searchable string for the given pages, in page order.
// A single page is returned unchanged.
func Normalize(pages ...string) string {
	switch len(pages) {
	case 0:
		return ""
	case 1:
		return pages[0]
	}
	return strings.Join(pages, PageSeparator)
}
