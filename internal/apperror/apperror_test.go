package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("user", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("email", "email is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "PasswordMismatch is a validation error",
			err:       PasswordMismatch(),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "PasswordMismatch matches its own kind",
			err:       PasswordMismatch(),
			target:    ErrPasswordMismatch,
			wantMatch: true,
		},
		{
			name:      "InvalidID is a validation error",
			err:       InvalidID("banana"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "InvalidID does NOT match ErrNotFound",
			err:       InvalidID("banana"),
			target:    ErrNotFound,
			wantMatch: false,
		},
		{
			name:      "DuplicateKey is a conflict",
			err:       DuplicateKey("user", "email", "phone_number"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "AuthenticationFailed is unauthenticated",
			err:       AuthenticationFailed(),
			target:    ErrUnauthenticated,
			wantMatch: true,
		},
		{
			name:      "Unauthenticated does NOT match AuthenticationFailed",
			err:       Unauthenticated(),
			target:    ErrAuthenticationFailed,
			wantMatch: false,
		},
		{
			name:      "wrapped NotFound still matches",
			err:       fmt.Errorf("sqlite: getting user: %w", NotFound("user", "abc123")),
			target:    ErrNotFound,
			wantMatch: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("user", "abc123"),
			wantMessage: "user not found with id abc123",
		},
		{
			name:        "DuplicateKey lists the fields",
			err:         DuplicateKey("user", "email", "phone_number"),
			wantMessage: "user already exists with the same email, phone_number",
		},
		{
			name:        "AuthenticationFailed does not say which part was wrong",
			err:         AuthenticationFailed(),
			wantMessage: "incorrect email or password",
		},
		{
			name:        "PasswordMismatch",
			err:         PasswordMismatch(),
			wantMessage: "passwords not match",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	err := NotFound("user", "abc123")
	if unwrapped := err.Unwrap(); unwrapped != ErrNotFound {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, ErrNotFound)
	}
}

func TestDuplicateKeyFields(t *testing.T) {
	err := DuplicateKey("user", "email", "phone_number")

	if len(err.Fields) != 2 || err.Fields[0] != "email" || err.Fields[1] != "phone_number" {
		t.Errorf("Fields = %v, want [email phone_number]", err.Fields)
	}
}
