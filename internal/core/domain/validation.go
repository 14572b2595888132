package domain

import (
	"fmt"
	"strings"
)

// CodeBadRequest is the only status code a validation failure carries; the
// taxonomy lives in the error messages, not in codes.
const CodeBadRequest = "BAD_REQUEST"

// ValidationError is one rule violation: a human-readable message plus a
// JSON-pointer-like locator into the filing document. Path is empty for the
// checks that do not point at a single field (effective date, documents).
type ValidationError struct {
	Message string `json:"error"`
	Path    string `json:"path,omitempty"`
}

// FilingValidationError aggregates every rule violation found in one
// validation pass. It is absent (nil) when the filing is clean.
type FilingValidationError struct {
	Code   string            `json:"code"`
	Errors []ValidationError `json:"msg"`
}

func (e *FilingValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, ve := range e.Errors {
		msgs = append(msgs, ve.Message)
	}
	return fmt.Sprintf("filing validation failed: %s", strings.Join(msgs, "; "))
}

// NewFilingValidationError wraps the collected messages, or returns nil when
// there are none.
func NewFilingValidationError(errs []ValidationError) *FilingValidationError {
	if len(errs) == 0 {
		return nil
	}
	return &FilingValidationError{Code: CodeBadRequest, Errors: errs}
}
