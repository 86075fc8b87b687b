package common

import (
	"errors"
	"strings"
)

// ValidationError carries the human-readable violations found in a record.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError returns nil when there is nothing to report.
func NewValidationError(violations []string) error {
	if len(violations) == 0 {
		return nil
	}
	v := make([]string, len(violations))
	copy(v, violations)
	return &ValidationError{Violations: v}
}

// Violations extracts the violation list from err, if it carries one.
func Violations(err error) []string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Violations
	}
	return nil
}
