package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/gatehouse/internal/idp/service"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

// RequireBearer authenticates the request's bearer token and attaches
// the resolved identity to the context. Requests without a valid token
// never reach the wrapped handler.
func RequireBearer(bearer *service.BearerAuthenticator) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result, err := bearer.AuthenticateRequest(r)
			if err != nil {
				writeBearerError(w, r, err)
				return
			}

			ctx := httpx.WithIdentity(r.Context(), result.Principal.ID, result.Scopes)
			ctx = httpx.WithAccountHref(ctx, result.Principal.Account.Href)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithSession resolves the cookie session, attaching the identity when
// one exists. Anonymous requests pass through untouched; handlers that
// need an authenticated caller check httpx.PrincipalID themselves.
func WithSession(sessions *service.SessionResolver) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := sessions.Resolve(w, r)
			if !sess.Anonymous {
				ctx := httpx.WithIdentity(r.Context(), sess.Result.Principal.ID, sess.Result.Scopes)
				ctx = httpx.WithAccountHref(ctx, sess.Result.Principal.Account.Href)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeBearerError(w http.ResponseWriter, r *http.Request, err error) {
	log := slogx.FromContext(r.Context())

	switch {
	case errors.Is(err, service.ErrMissingCredentials):
		w.Header().Set("WWW-Authenticate", `Bearer realm="gatehouse"`)
		ErrInvalidToken.WriteError(w)
	case errors.Is(err, service.ErrExpiredAccessToken):
		ErrExpiredToken.WriteError(w)
	case errors.Is(err, service.ErrInvalidAccessToken):
		ErrInvalidToken.WriteError(w)
	case errors.Is(err, service.ErrInvalidClient):
		ErrInvalidClient.WriteError(w)
	case errors.Is(err, service.ErrUpstreamUnavailable):
		log.Warn("bearer validation degraded", "err", err)
		ErrUpstreamUnavailable.WriteError(w)
	default:
		log.Error("bearer validation failed", "err", err)
		ErrServerError.WriteError(w)
	}
}
