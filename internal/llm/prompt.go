package llm

import (
	"strings"
)

// DefaultMaxChars bounds how much document text is sent to a model.
const DefaultMaxChars = 4000

// BuildPrompt asks the model for the record as bare JSON. Only the first maxChars
// characters (runes, not bytes) of text are included.
func BuildPrompt(text string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	var b strings.Builder
	b.WriteString("Extract the following information from this Thai academic PDF text and return ONLY a valid JSON object with no additional text:\n\n")
	b.WriteString("PDF Text:\n")
	b.WriteString(Truncate(text, maxChars))
	b.WriteString("\n\nExtract:\n")
	b.WriteString("1. project_name (from \"1. ชื่อโครงการ\")\n")
	b.WriteString("2. responsible_person (from \"2. ผู้รับผิดชอบ\")\n")
	b.WriteString("3. budget_items (from \"14. รายละเอียดงบประมาณ\") as an array of objects with: activity_name, description, amount\n\n")
	b.WriteString("Return format (JSON only, no markdown, no explanation):\n")
	b.WriteString(`{
  "project_name": "extracted name",
  "responsible_person": "extracted person",
  "budget_items": [
    {"activity_name": "activity", "description": "desc", "amount": 1000}
  ]
}`)
	return b.String()
}

// Truncate keeps at most n runes of s so multi-byte Thai characters are never split.
func Truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
