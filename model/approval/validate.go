package approval

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError indicates a malformed or incomplete submission. It is
// reported to the submitter distinctly from domain refusals so that callers
// can tell a broken request apart from a human "no".
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %v %v", e.Field, e.Reason)
}

// NewValidationError creates a validation error for the given field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidationError reports whether err (or anything it wraps) is a
// ValidationError.
func IsValidationError(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// Validate checks that all required fields are present and non-empty.
// CorrelationID is exempt – the engine assigns one when the submitter did
// not. Validation failures produce no side effects downstream.
func (r *Request) Validate() error {
	if r == nil {
		return NewValidationError("request", "was nil")
	}
	if strings.TrimSpace(r.AgentName) == "" {
		return NewValidationError("agentName", "was empty")
	}
	if strings.TrimSpace(r.ActionDescription) == "" {
		return NewValidationError("actionDescription", "was empty")
	}
	if len(r.ApproverEmails) == 0 {
		return NewValidationError("approverEmails", "was empty")
	}
	for i, email := range r.ApproverEmails {
		if strings.TrimSpace(email) == "" {
			return NewValidationError("approverEmails", fmt.Sprintf("entry %d was empty", i))
		}
	}
	return nil
}
