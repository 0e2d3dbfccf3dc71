package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/session-auth/internal/apperror"
	"github.com/sakif/session-auth/internal/model"
)

type fakeResolver struct {
	users map[string]*model.User // keyed by token
	calls int
	err   error // returned for every call when set
}

func (f *fakeResolver) ResolveSession(_ context.Context, token string) (*model.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.users[token]; ok {
		return u, nil
	}
	return nil, apperror.Unauthenticated()
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{users: map[string]*model.User{
		"good-token": {ID: "9m4e2mr0ui3e8a215n4g", Email: "a@b.com"},
	}}
}

// =========================================================================
// COOKIE TRANSPORT TESTS
// =========================================================================

func TestCookieTransport_Set(t *testing.T) {
	ct := NewCookieTransport(CookieConfig{Name: "todo.access-token", Domain: "example.com", Secure: true})
	rr := httptest.NewRecorder()

	ct.Set(rr, "tok", 30*time.Minute)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "todo.access-token", c.Name)
	assert.Equal(t, "tok", c.Value)
	assert.Equal(t, 1800, c.MaxAge)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, "example.com", c.Domain)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
}

func TestCookieTransport_Clear(t *testing.T) {
	ct := NewCookieTransport(CookieConfig{})
	rr := httptest.NewRecorder()

	ct.Clear(rr)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, DefaultCookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestCookieTransport_Token(t *testing.T) {
	ct := NewCookieTransport(CookieConfig{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, ct.Token(req))

	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "abc"})
	assert.Equal(t, "abc", ct.Token(req))
}

// =========================================================================
// MIDDLEWARE TESTS
// =========================================================================

func TestRequireSession(t *testing.T) {
	ct := NewCookieTransport(CookieConfig{})

	var seen *model.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	t.Run("valid session reaches the handler", func(t *testing.T) {
		seen = nil
		h := RequireSession(newFakeResolver(), ct)(next)
		req := httptest.NewRequest(http.MethodGet, "/users/me/", nil)
		req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "good-token"})
		rr := httptest.NewRecorder()

		h.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "a@b.com", seen.Email)
	})

	t.Run("missing cookie is 401", func(t *testing.T) {
		seen = nil
		h := RequireSession(newFakeResolver(), ct)(next)
		rr := httptest.NewRecorder()

		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/users/me/", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "user not authenticated")
		assert.Nil(t, seen)
	})

	t.Run("empty cookie is 401", func(t *testing.T) {
		h := RequireSession(newFakeResolver(), ct)(next)
		req := httptest.NewRequest(http.MethodGet, "/users/me/", nil)
		req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: ""})
		rr := httptest.NewRecorder()

		h.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("store failure is 500", func(t *testing.T) {
		seen = nil
		resolver := newFakeResolver()
		resolver.err = errors.New("connection refused")
		h := RequireSession(resolver, ct)(next)
		req := httptest.NewRequest(http.MethodGet, "/users/me/", nil)
		req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "good-token"})
		rr := httptest.NewRecorder()

		h.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), "connection refused")
		assert.Nil(t, seen)
	})
}

func TestOptionalSession(t *testing.T) {
	ct := NewCookieTransport(CookieConfig{})

	var (
		seen *model.User
		ok   bool
	)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, ok = UserFromContext(r.Context())
	})

	t.Run("anonymous passes without resolving", func(t *testing.T) {
		resolver := newFakeResolver()
		rr := httptest.NewRecorder()

		OptionalSession(resolver, ct)(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.False(t, ok)
		assert.Nil(t, seen)
		assert.Equal(t, 0, resolver.calls)
	})

	t.Run("bad token passes as anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "bad"})
		rr := httptest.NewRecorder()

		OptionalSession(newFakeResolver(), ct)(next).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.False(t, ok)
	})

	t.Run("good token sets the user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "good-token"})

		OptionalSession(newFakeResolver(), ct)(next).ServeHTTP(httptest.NewRecorder(), req)

		assert.True(t, ok)
		require.NotNil(t, seen)
		assert.Equal(t, "9m4e2mr0ui3e8a215n4g", seen.ID)
	})
}
