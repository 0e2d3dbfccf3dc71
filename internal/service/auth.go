// Package service holds the authentication business logic.
//
//	handler (HTTP) → AuthService → repository.UserRepository
//	                            ↘ auth.PasswordService / auth.TokenService
//
// The service takes and returns plain values. It never reads requests or
// sets cookies; the handler maps results onto HTTP using SessionTTL.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/session-auth/internal/apperror"
	"github.com/sakif/session-auth/internal/auth"
	"github.com/sakif/session-auth/internal/model"
	"github.com/sakif/session-auth/internal/repository"
)

// DefaultSessionTTL is the lifetime of tokens issued at signup and sign-in
// when none is configured.
const DefaultSessionTTL = 30 * time.Minute

// AuthService runs signup, sign-in and session resolution. It keeps no
// per-request state and no cache: every ResolveSession goes to the store.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenService
	passwords  *auth.PasswordService
	sessionTTL time.Duration
	logger     *slog.Logger
}

// NewAuthService wires an AuthService. A sessionTTL of zero selects
// DefaultSessionTTL.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	sessionTTL time.Duration,
	logger *slog.Logger,
) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &AuthService{
		users:      users,
		tokens:     tokens,
		passwords:  passwords,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

// AuthResult bundles the user and the freshly issued session token.
type AuthResult struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

// SessionTTL is the lifetime of issued session tokens; the cookie max-age
// should match it.
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// SignUp registers a user and issues a session for it.
//
// Errors:
//   - apperror.ErrPasswordMismatch when the confirmation differs (nothing is stored).
//   - apperror.ErrPasswordTooLong when the password cannot be hashed.
//   - apperror.ErrDuplicateKey when (email, phone_number) is taken; no token
//     is issued and no record is left behind.
func (s *AuthService) SignUp(ctx context.Context, in model.SignUpInput) (*AuthResult, error) {
	if in.Password != in.PasswordConfirm {
		return nil, apperror.PasswordMismatch()
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user, err := s.users.Create(ctx, model.NewUser{
		Email:        in.Email,
		Name:         in.Name,
		DisplayName:  in.DisplayName,
		PhotoURL:     in.PhotoURL,
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, apperror.ErrDuplicateKey) {
			s.logger.Info("signup rejected: duplicate key")
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	result, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user signed up", slog.String("userID", user.ID))
	return result, nil
}

// SignIn checks credentials and issues a session.
//
// An unknown email and a wrong password produce the same
// apperror.ErrAuthenticationFailed error, and take about the same time.
// Callers should clear any existing session cookie on failure.
func (s *AuthService) SignIn(ctx context.Context, creds model.Credentials) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, creds.Email)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("service/auth: looking up user: %w", err)
		}
		s.passwords.VerifyAbsent(creds.Password)
		s.logger.Warn("sign-in rejected", slog.String("reason", "unknown email"))
		return nil, apperror.AuthenticationFailed()
	}

	if !s.passwords.Verify(user.PasswordHash, creds.Password) {
		s.logger.Warn("sign-in rejected",
			slog.String("reason", "wrong password"),
			slog.String("userID", user.ID),
		)
		return nil, apperror.AuthenticationFailed()
	}

	result, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user signed in", slog.String("userID", user.ID))
	return result, nil
}

// ResolveSession validates token and loads its user.
//
// Every token problem (empty, malformed, bad signature, expired) and every
// lookup miss (unknown or malformed subject) is apperror.ErrUnauthenticated.
// Only store failures come back as other errors.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		s.logger.Debug("session rejected", slog.String("reason", err.Error()))
		return nil, apperror.Unauthenticated()
	}

	user, err := s.users.GetByID(ctx, claims.SubjectID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrInvalidID) {
			s.logger.Debug("session rejected",
				slog.String("reason", "subject not found"),
				slog.String("userID", claims.SubjectID),
			)
			return nil, apperror.Unauthenticated()
		}
		return nil, fmt.Errorf("service/auth: loading session user: %w", err)
	}

	return user, nil
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.GenerateWithDuration(user.ID, s.sessionTTL)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}
