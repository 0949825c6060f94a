package httpx

import (
	"net"
	"net/http"
	"strings"
)

// CookieConfig describes one session cookie.
type CookieConfig struct {
	Name     string
	Domain   string
	Path     string
	MaxAge   int // seconds; 0 means session cookie
	HTTPOnly bool
	Secure   bool
}

// SecureEvaluator decides per-request whether cookies should carry the
// Secure flag. The default keeps Secure on except for localhost-style
// hosts, where browsers would otherwise drop the cookie over plain http
// during development.
type SecureEvaluator func(r *http.Request) bool

// DefaultSecureEvaluator returns false only for localhost-style hostnames.
func DefaultSecureEvaluator(r *http.Request) bool {
	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(host)

	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return false
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return false
	}
	return true
}

// SessionCookies writes and clears the access/refresh cookie pair that
// carries a browser session's tokens.
type SessionCookies struct {
	Access  CookieConfig
	Refresh CookieConfig

	// IsSecure overrides the Secure flag per request. Nil uses
	// DefaultSecureEvaluator.
	IsSecure SecureEvaluator
}

// WriteAccess sets the access-token cookie. No-op once the response
// header has been written.
func (s *SessionCookies) WriteAccess(w http.ResponseWriter, r *http.Request, token string) {
	s.set(w, r, s.Access, token, s.Access.MaxAge)
}

// WriteRefresh sets the refresh-token cookie.
func (s *SessionCookies) WriteRefresh(w http.ResponseWriter, r *http.Request, token string) {
	s.set(w, r, s.Refresh, token, s.Refresh.MaxAge)
}

// Clear expires both cookies so dead tokens are not retried on every
// subsequent request.
func (s *SessionCookies) Clear(w http.ResponseWriter, r *http.Request) {
	s.set(w, r, s.Access, "", -1)
	s.set(w, r, s.Refresh, "", -1)
}

// ReadAccess returns the access-token cookie value, "" when absent.
func (s *SessionCookies) ReadAccess(r *http.Request) string {
	return readCookie(r, s.Access.Name)
}

// ReadRefresh returns the refresh-token cookie value, "" when absent.
func (s *SessionCookies) ReadRefresh(r *http.Request) string {
	return readCookie(r, s.Refresh.Name)
}

func (s *SessionCookies) set(w http.ResponseWriter, r *http.Request, cfg CookieConfig, value string, maxAge int) {
	if ww, ok := w.(*ResponseWriter); ok && ww.Written() {
		// Response already committed; a Set-Cookie now would be lost.
		return
	}

	secure := cfg.Secure
	eval := s.IsSecure
	if eval == nil {
		eval = DefaultSecureEvaluator
	}
	if secure {
		secure = eval(r)
	}

	path := cfg.Path
	if path == "" {
		path = "/"
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    value,
		Domain:   cfg.Domain,
		Path:     path,
		MaxAge:   maxAge,
		HttpOnly: cfg.HTTPOnly,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func readCookie(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
