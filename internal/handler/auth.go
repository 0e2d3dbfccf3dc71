package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/sakif/session-auth/internal/apperror"
	"github.com/sakif/session-auth/internal/auth"
	"github.com/sakif/session-auth/internal/model"
	"github.com/sakif/session-auth/internal/service"
)

// maxBodyBytes bounds request bodies; signup payloads are tiny.
const maxBodyBytes = 1 << 20

// Authenticator is the part of service.AuthService the handlers call.
type Authenticator interface {
	SignUp(ctx context.Context, in model.SignUpInput) (*service.AuthResult, error)
	SignIn(ctx context.Context, creds model.Credentials) (*service.AuthResult, error)
	SessionTTL() time.Duration
}

// UsersHandler serves registration and the session lifecycle.
//
// HANDLER RESPONSIBILITIES:
//   - HandleSignUp  → validate the body, register, set the session cookie
//   - HandleSignIn  → check credentials, set (or clear) the session cookie
//   - HandleSignOut → clear the session cookie, logging who signed out
//   - HandleMe      → return the user RequireSession put in the context
//
// The handler owns the HTTP details: decoding, schema checks and cookies.
// Business rules live in the Authenticator.
type UsersHandler struct {
	auth    Authenticator
	cookies *auth.CookieTransport
	logger  *slog.Logger
}

// NewUsersHandler creates a UsersHandler.
func NewUsersHandler(authenticator Authenticator, cookies *auth.CookieTransport, logger *slog.Logger) *UsersHandler {
	return &UsersHandler{
		auth:    authenticator,
		cookies: cookies,
		logger:  logger,
	}
}

// HandleRoot answers the bare root path.
//
// HTTP: GET /
func HandleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Welcome to session-auth"})
}

// HandleSignUp registers a user and signs them in.
//
// HTTP: POST /users/
// Body: {"email", "name", "password", "password_confirm", "display_name"?, "photo_url"?, "phone_number"?}
//
// Responses:
//   - 200 the stored user (no password hash) plus the session cookie
//   - 400 invalid body or passwords not match
//   - 409 a user with the same email and phone number exists
func (h *UsersHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var in model.SignUpInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	if err := validateSignUp(in); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.auth.SignUp(r.Context(), in)
	if err != nil {
		h.logError(r, "HandleSignUp", err)
		writeError(w, err)
		return
	}

	h.cookies.Set(w, result.Token, h.auth.SessionTTL())
	writeJSON(w, http.StatusOK, result.User)
}

// HandleSignIn exchanges credentials for a session cookie.
//
// HTTP: POST /users/signin
// Body: {"email", "password"}
//
// On any failure the existing session cookie is cleared, so a client that
// fails to sign in as someone else is not left signed in as before.
func (h *UsersHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := decodeJSON(w, r, &creds); err != nil {
		h.cookies.Clear(w)
		writeError(w, err)
		return
	}
	if err := validateCredentials(creds); err != nil {
		h.cookies.Clear(w)
		writeError(w, err)
		return
	}

	result, err := h.auth.SignIn(r.Context(), creds)
	if err != nil {
		h.logError(r, "HandleSignIn", err)
		h.cookies.Clear(w)
		writeError(w, err)
		return
	}

	h.cookies.Set(w, result.Token, h.auth.SessionTTL())
	writeJSON(w, http.StatusOK, result.User)
}

// HandleSignOut deletes the client's session cookie.
//
// HTTP: POST /users/signout
// Auth: optional (OptionalSession puts the user in the context when the
// cookie still resolves, so the sign-out can be attributed in the logs)
//
// Tokens are not tracked server-side: a copy of the token stays usable until
// it expires. Signing out without a session is not an error.
func (h *UsersHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	if user, ok := auth.UserFromContext(r.Context()); ok {
		h.logger.Info("user signed out", slog.String("userID", user.ID))
	}
	h.cookies.Clear(w)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "signed out"})
}

// HandleMe returns the authenticated user's profile.
//
// HTTP: GET /users/me/
// Auth: required (RequireSession puts the user in the context)
func (h *UsersHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated())
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// logError logs only what the client cannot be blamed for. Expected
// rejections are already logged by the service.
func (h *UsersHandler) logError(r *http.Request, op string, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return
	}
	h.logger.Error(op+" failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.ValidationFailed("body", "invalid request body")
	}
	return nil
}

func validateSignUp(in model.SignUpInput) error {
	if err := validateEmail(in.Email); err != nil {
		return err
	}
	if strings.TrimSpace(in.Name) == "" {
		return apperror.ValidationFailed("name", "name is required")
	}
	if in.Password == "" {
		return apperror.ValidationFailed("password", "password is required")
	}
	if in.PasswordConfirm == "" {
		return apperror.ValidationFailed("password_confirm", "password_confirm is required")
	}
	return nil
}

func validateCredentials(creds model.Credentials) error {
	if err := validateEmail(creds.Email); err != nil {
		return err
	}
	if creds.Password == "" {
		return apperror.ValidationFailed("password", "password is required")
	}
	return nil
}

// validateEmail accepts a bare address only: "Name <a@b.c>" is rejected.
func validateEmail(email string) error {
	if email == "" {
		return apperror.ValidationFailed("email", "email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apperror.ValidationFailed("email", "email is not a valid address")
	}
	return nil
}
