package entity

// ExtractionResult is what callers get back from an extract request: the record plus
// the validator output, so the record can be reviewed and edited before saving.
type ExtractionResult struct {
	Record           ExtractedRecord `json:"record"`
	ValidationErrors []string        `json:"validation_errors"`
	Backend          string          `json:"backend"`
	Filename         string          `json:"filename,omitempty"`
	Pages            int             `json:"pages,omitempty"`
}

// Valid reports whether the record passed validation.
func (r ExtractionResult) Valid() bool {
	return len(r.ValidationErrors) == 0
}
