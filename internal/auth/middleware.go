package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sakif/session-auth/internal/apperror"
	"github.com/sakif/session-auth/internal/model"
)

// contextKey keeps our context values out of reach of other packages.
type contextKey string

const userKey contextKey = "user"

// SessionResolver turns a session token into the user it belongs to.
// service.AuthService satisfies it.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*model.User, error)
}

// RequireSession rejects requests without a resolvable session with 401 and
// otherwise stores the user in the request context. A store failure while
// resolving is a 500, not a 401.
//
// The user is looked up on every request, so an account deleted after the
// token was issued is rejected.
func RequireSession(sessions SessionResolver, cookies *CookieTransport) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := sessions.ResolveSession(r.Context(), cookies.Token(r))
			if err != nil {
				if errors.Is(err, apperror.ErrUnauthenticated) {
					writeStatus(w, http.StatusUnauthorized, "unauthorized", "user not authenticated")
				} else {
					writeStatus(w, http.StatusInternalServerError, "internal_error", "An internal error occurred")
				}
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// OptionalSession is RequireSession without the 401: anonymous requests pass
// through with no user in the context.
func OptionalSession(sessions SessionResolver, cookies *CookieTransport) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := cookies.Token(r); token != "" {
				if user, err := sessions.ResolveSession(r.Context(), token); err == nil {
					r = r.WithContext(WithUser(r.Context(), user))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the authenticated user, or (nil, false) for an
// anonymous request.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}

func writeStatus(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   kind,
		"message": message,
	})
}
