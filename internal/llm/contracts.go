package llm

import (
	"fmt"

	"github.com/joseph-ayodele/budget-extractor/internal/common"
)

// BackendError reports a failed call to a remote extraction backend. It matches
// common.ErrBackend with errors.Is and still exposes the underlying cause.
type BackendError struct {
	Backend string
	Op      string // http, decode, no_choices, schema, ...
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s backend: %s: %v", e.Backend, e.Op, e.Err)
}

func (e *BackendError) Unwrap() []error {
	return []error{common.ErrBackend, e.Err}
}

func NewBackendError(backend, op string, err error) *BackendError {
	return &BackendError{Backend: backend, Op: op, Err: err}
}
