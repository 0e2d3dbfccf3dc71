package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON or writeError so that success and
// error bodies keep one shape:
//
//	writeJSON(w, http.StatusOK, user)
//	writeError(w, err)
//
// Every error body looks like:
//
//	{"error": "conflict", "message": "user already exists with the same email, phone_number",
//	 "fields": ["email", "phone_number"]}

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/session-auth/internal/apperror"
)

// ErrorResponse is the error format returned by all endpoints.
type ErrorResponse struct {
	Error   string   `json:"error"`            // machine-readable kind, e.g. "validation_error"
	Message string   `json:"message"`          // human-readable description
	Field   string   `json:"field,omitempty"`  // offending input field, if any
	Fields  []string `json:"fields,omitempty"` // conflicting unique fields on 409
}

// MessageResponse is the body of endpoints that only acknowledge.
type MessageResponse struct {
	Message string `json:"message"`
}

// writeJSON sends data as JSON with the given status.
// Headers and status must be written before the body.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps an error kind to an HTTP status and sends it.
//
// errors.Is walks the whole chain, so a service error like
//
//	fmt.Errorf("service/auth: creating user: %w", apperror.DuplicateKey(...))
//
// still lands on ErrConflict → 409. Sub-kinds wrap their parent kind, which
// is why ErrPasswordMismatch needs no case of its own.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest // 400
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrUnauthenticated):
			status = http.StatusUnauthorized // 401
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound // 404
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict // 409
			errorType = "conflict"
		}

		if status != http.StatusInternalServerError {
			writeJSON(w, status, ErrorResponse{
				Error:   errorType,
				Message: appErr.Message,
				Field:   appErr.Field,
				Fields:  appErr.Fields,
			})
			return
		}
	}

	// Unknown error. Never expose its text: it may carry SQL or driver detail.
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
