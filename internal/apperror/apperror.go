// Package apperror defines the error kinds shared by the store, the service
// and the HTTP layer.
//
// Every kind is a sentinel that can be matched with errors.Is. Sub-kinds wrap
// their parent, so a handler that only knows about ErrValidation still maps
// ErrPasswordMismatch to a 400:
//
//	ErrValidation      ← ErrPasswordMismatch, ErrInvalidID, ErrPasswordTooLong
//	ErrConflict        ← ErrDuplicateKey
//	ErrUnauthenticated ← ErrAuthenticationFailed
//	ErrNotFound
package apperror

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation error")
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("unauthenticated")

	ErrPasswordMismatch     = fmt.Errorf("%w: passwords do not match", ErrValidation)
	ErrPasswordTooLong      = fmt.Errorf("%w: password too long", ErrValidation)
	ErrInvalidID            = fmt.Errorf("%w: invalid identifier", ErrValidation)
	ErrDuplicateKey         = fmt.Errorf("%w: duplicate key", ErrConflict)
	ErrAuthenticationFailed = fmt.Errorf("%w: authentication failed", ErrUnauthenticated)
)

// AppError is an error that is safe to show to a client.
// Message never contains driver or database text.
type AppError struct {
	Err     error    // kind, one of the sentinels above
	Message string   // human-readable error message
	Field   string   // optional: field causing the error
	Fields  []string // optional: conflicting unique fields
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

// NotFoundBy is NotFound for a lookup by a field other than the id. The
// value is left out of the message.
func NotFoundBy(resource, field string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found by %s", resource, field),
		Field:   field,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// PasswordMismatch reports that the confirmation differs from the password.
func PasswordMismatch() *AppError {
	return &AppError{
		Err:     ErrPasswordMismatch,
		Message: "passwords not match",
		Field:   "password_confirm",
	}
}

// PasswordTooLong reports a password the hashing scheme cannot represent.
func PasswordTooLong(max int) *AppError {
	return &AppError{
		Err:     ErrPasswordTooLong,
		Message: fmt.Sprintf("password must be %d bytes or fewer", max),
		Field:   "password",
	}
}

// InvalidID reports an identifier that is not well formed for the store.
func InvalidID(id string) *AppError {
	return &AppError{
		Err:     ErrInvalidID,
		Message: fmt.Sprintf("%q is not a valid id", id),
		Field:   "id",
	}
}

// DuplicateKey reports a violated uniqueness constraint over fields.
func DuplicateKey(resource string, fields ...string) *AppError {
	return &AppError{
		Err:     ErrDuplicateKey,
		Message: fmt.Sprintf("%s already exists with the same %s", resource, strings.Join(fields, ", ")),
		Fields:  fields,
	}
}

// AuthenticationFailed is the single outcome for unknown email and wrong
// password alike.
func AuthenticationFailed() *AppError {
	return &AppError{
		Err:     ErrAuthenticationFailed,
		Message: "incorrect email or password",
	}
}

// Unauthenticated reports a missing, invalid or stale session.
func Unauthenticated() *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: "user not authenticated",
	}
}
