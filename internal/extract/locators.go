package extract

import (
	"regexp"
	"strings"
)

// Locator finds one labeled field in the document text. Rules are tried in order and
// the first match wins; a miss is reported as ("", false), never as an error.
type Locator struct {
	name  string
	rules []*regexp.Regexp
	clean func(string) string
}

func (l Locator) Name() string { return l.name }

func (l Locator) Locate(text string) (string, bool) {
	for _, re := range l.rules {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v := m[1]
		if l.clean != nil {
			v = l.clean(v)
		}
		return v, true
	}
	return "", false
}

func newProjectNameLocator(c *compiledRules) Locator {
	return Locator{name: "project_name", rules: c.projectName, clean: strings.TrimSpace}
}

func newResponsiblePersonLocator(c *compiledRules) Locator {
	marker := c.trailingMarker
	return Locator{
		name:  "responsible_person",
		rules: c.responsiblePerson,
		clean: func(s string) string {
			s = strings.TrimSpace(s)
			if marker != nil {
				s = marker.ReplaceAllString(s, "")
			}
			return s
		},
	}
}

// The budget block is returned raw; the parser owns its whitespace.
func newBudgetSectionLocator(c *compiledRules) Locator {
	return Locator{name: "budget_section", rules: c.budgetSection}
}
