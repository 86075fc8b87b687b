package constants

import (
	"path/filepath"
	"strings"
)

// PDFExt is the only document extension accepted for extraction.
const PDFExt = "pdf"

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsPDF reports whether the filename carries a .pdf extension.
func IsPDF(filename string) bool {
	return NormalizeExt(filepath.Ext(filename)) == PDFExt
}
