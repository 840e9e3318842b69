package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
)

// AppError carries a sentinel kind plus the message shown to the user.
// Field is set when the error belongs to a single form field, so handlers
// can attach it next to the right input instead of a generic error box.
type AppError struct {
	Err     error  // sentinel kind (ErrNotFound, ErrValidation, ...)
	Message string // human-readable error message
	Field   string // optional: form field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports a uniqueness violation on a specific field, e.g. a
// registration attempt with a username that is already taken.
func Conflict(field, message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
		Field:   field,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// This is a terminal authorization failure, distinct from "not logged in" —
// HTTP handlers map it to 403, never to a login redirect.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}
