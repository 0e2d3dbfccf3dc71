package auth

import (
	"net/http"
	"time"
)

// DefaultCookieName is the session cookie name when none is configured.
const DefaultCookieName = "access-token"

// CookieConfig holds the attributes of the session cookie.
type CookieConfig struct {
	Name   string
	Domain string
	Secure bool
}

// CookieTransport moves session tokens in and out of HTTP cookies. The core
// never touches headers; handlers call this with the token and the ttl the
// service reports.
//
// The cookie is HttpOnly, SameSite=Lax and scoped to "/".
type CookieTransport struct {
	cfg CookieConfig
}

// NewCookieTransport returns a CookieTransport; an empty name becomes
// DefaultCookieName.
func NewCookieTransport(cfg CookieConfig) *CookieTransport {
	if cfg.Name == "" {
		cfg.Name = DefaultCookieName
	}
	return &CookieTransport{cfg: cfg}
}

// Name is the cookie name.
func (c *CookieTransport) Name() string {
	return c.cfg.Name
}

// Set attaches token to the response with Max-Age = ttl.
func (c *CookieTransport) Set(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, c.cookie(token, int(ttl/time.Second)))
}

// Clear tells the browser to drop the session cookie.
func (c *CookieTransport) Clear(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie("", -1))
}

// Token returns the session token sent with r, or "" if there is none.
func (c *CookieTransport) Token(r *http.Request) string {
	cookie, err := r.Cookie(c.cfg.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (c *CookieTransport) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     c.cfg.Name,
		Value:    value,
		Path:     "/",
		Domain:   c.cfg.Domain,
		MaxAge:   maxAge,
		Secure:   c.cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
