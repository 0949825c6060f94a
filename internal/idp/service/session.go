package service

import (
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/gatehouse/internal/idp/domain"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

// Session is what a browser request resolved to. Anonymous sessions
// have a zero Result.
type Session struct {
	Anonymous bool
	Result    domain.AuthResult
}

// SessionResolver resolves the access/refresh cookie pair into a
// session. It never returns an error: any failure ends in an anonymous
// session, with dead cookies cleared so they are not retried on every
// request.
type SessionResolver struct {
	Bearer  *BearerAuthenticator
	Grants  *GrantAuthenticator
	Cookies *httpx.SessionCookies
}

func NewSessionResolver(bearer *BearerAuthenticator, grants *GrantAuthenticator, cookies *httpx.SessionCookies) *SessionResolver {
	return &SessionResolver{Bearer: bearer, Grants: grants, Cookies: cookies}
}

// Resolve gives the caller two chances at an authenticated session: the
// access cookie as presented, then one refresh-grant attempt from the
// refresh cookie. New tokens from a successful refresh are persisted
// back as cookies before the handler writes its response.
func (s *SessionResolver) Resolve(w http.ResponseWriter, r *http.Request) Session {
	ctx := r.Context()
	l := slogx.FromContext(ctx)

	access := s.Cookies.ReadAccess(r)
	refresh := s.Cookies.ReadRefresh(r)
	if access == "" && refresh == "" {
		return Session{Anonymous: true}
	}

	if access != "" {
		result, err := s.Bearer.Authenticate(ctx, access)
		if err == nil {
			return Session{Result: result}
		}
		// Any access-cookie failure falls through to the refresh cookie.
		l.Debug("session access cookie rejected", slog.String("reason", err.Error()))
	}

	if refresh == "" {
		s.Cookies.Clear(w, r)
		return Session{Anonymous: true}
	}

	resp, principal, err := s.Grants.Authenticate(ctx, domain.GrantRequest{
		Type:         domain.GrantRefreshToken,
		RefreshToken: refresh,
	})
	if err != nil {
		// One chance only: a failed refresh retires the pair, transient
		// upstream errors included, so a dead cookie is not retried on
		// every request.
		s.Cookies.Clear(w, r)
		l.Info("session refresh failed", slog.String("reason", err.Error()))
		return Session{Anonymous: true}
	}

	s.Cookies.WriteAccess(w, r, resp.AccessToken)
	if resp.RefreshToken != "" {
		s.Cookies.WriteRefresh(w, r, resp.RefreshToken)
	}

	return Session{Result: domain.AuthResult{
		Principal: principal,
		Scopes:    splitScopes(resp.Scope),
	}}
}

func splitScopes(s string) []string {
	if s == "" {
		return nil
	}
	return httpx.ParseSpaceDelimitedFields(s)
}
