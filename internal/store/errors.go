package store

import (
	"fmt"
	"net/http"
)

// Error is a persistence error with an HTTP status code.
type Error struct {
	Code    int    // HTTP status code
	Message string // User-facing message
	Field   string // Column behind a constraint violation, when known
	Err     error  // Underlying error (optional)
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same code, so wrapped variants still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// HTTPCode returns the HTTP status code associated with this error.
func (e *Error) HTTPCode() int { return e.Code }

// WithMessage returns a new error with a custom message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Code: e.Code, Message: msg, Field: e.Field, Err: e.Err}
}

// WithField returns a new error naming the offending column.
func (e *Error) WithField(field string) *Error {
	return &Error{Code: e.Code, Message: e.Message, Field: field, Err: e.Err}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Field: e.Field, Err: err}
}

// Sentinel errors.
var (
	ErrNotFound = &Error{
		Code:    http.StatusNotFound,
		Message: "resource not found",
	}

	// ErrAlreadyExists reports a UNIQUE constraint violation. It maps to 400
	// because every uniqueness rule in the API is a validation rule.
	ErrAlreadyExists = &Error{
		Code:    http.StatusBadRequest,
		Message: "resource already exists",
	}

	ErrInvalidInput = &Error{
		Code:    http.StatusUnprocessableEntity,
		Message: "invalid input",
	}
)
