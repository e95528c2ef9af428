package model

import (
	"errors"
	"fmt"
)

// ErrNotFound reports an operation on a record that does not exist
// (or is not visible to the caller).
var ErrNotFound = errors.New("not found")

// ErrForbidden reports an operation the caller is not allowed to perform.
var ErrForbidden = errors.New("forbidden")

// ValidationError reports input the caller can correct.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// PreconditionError reports a request rejected because of the current
// state of the data (wrong recipe status, missing content, insufficient
// ingredients, exceeded limits).
type PreconditionError struct {
	Reason  string
	Details map[string]any
}

func (e *PreconditionError) Error() string {
	return e.Reason
}

// Precondition builds a PreconditionError without details.
func Precondition(reason string) error {
	return &PreconditionError{Reason: reason}
}

// Invalid builds a ValidationError.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
