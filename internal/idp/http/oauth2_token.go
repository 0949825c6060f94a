package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/gatehouse/internal/idp/domain"
	"github.com/aussiebroadwan/gatehouse/internal/idp/service"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

// TokenHandler serves POST /v1/oauth2/token
// Accepts application/x-www-form-urlencoded per the RFC 6749 framework.
// Client credentials are read from the Basic Authorization header first,
// falling back to client_id/client_secret form fields.
type TokenHandler struct {
	Grants *service.GrantAuthenticator
}

func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		ErrInvalidContentType.WriteError(w)
		return
	}

	if err := r.ParseForm(); err != nil {
		ErrInvalidFormBody.WriteError(w)
		return
	}

	req, oauthErr := h.grantRequest(r)
	if oauthErr != nil {
		oauthErr.WriteError(w)
		return
	}

	resp, _, err := h.Grants.Authenticate(r.Context(), req)
	if err != nil {
		writeGrantError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *TokenHandler) grantRequest(r *http.Request) (domain.GrantRequest, *OAuth2Error) {
	form := r.Form

	req := domain.GrantRequest{
		Type:             domain.GrantType(form.Get("grant_type")),
		RequestedScope:   httpx.ParseSpaceDelimitedFields(form.Get("scope")),
		AccountStoreHref: strings.TrimSpace(form.Get("account_store")),
	}

	switch req.Type {
	case domain.GrantClientCredentials:
		id, secret, err := httpx.BasicCredentials(r)
		switch {
		case err == nil:
			req.ClientID, req.ClientSecret = id, secret
		case errors.Is(err, httpx.ErrUnsupportedScheme):
			return domain.GrantRequest{}, ErrInvalidClient
		default:
			req.ClientID = strings.TrimSpace(form.Get("client_id"))
			req.ClientSecret = form.Get("client_secret")
			if req.ClientID == "" {
				// No Authorization header and no form credentials is a
				// malformed request, not a failed authentication.
				return domain.GrantRequest{}, ErrInvalidRequest
			}
		}

	case domain.GrantPassword:
		req.Username = strings.TrimSpace(form.Get("username"))
		req.Password = form.Get("password")
		if req.Username == "" || req.Password == "" {
			return domain.GrantRequest{}, ErrInvalidRequest
		}

	case domain.GrantRefreshToken:
		req.RefreshToken = strings.TrimSpace(form.Get("refresh_token"))
		if req.RefreshToken == "" {
			return domain.GrantRequest{}, ErrInvalidRequest
		}

	default:
		return domain.GrantRequest{}, ErrUnsupportedGrantType
	}

	return req, nil
}

func writeGrantError(w http.ResponseWriter, r *http.Request, err error) {
	log := slogx.FromContext(r.Context())

	switch {
	case errors.Is(err, service.ErrUnsupportedGrantType):
		ErrUnsupportedGrantType.WriteError(w)
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrMissingCredentials):
		ErrInvalidRequest.WriteError(w)
	case errors.Is(err, service.ErrInvalidClient):
		ErrInvalidClient.WriteError(w)
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidRefresh):
		ErrInvalidGrant.WriteError(w)
	case errors.Is(err, service.ErrUpstreamUnavailable):
		log.Warn("token grant degraded", "err", err)
		ErrUpstreamUnavailable.WriteError(w)
	default:
		log.Error("token grant failed", "err", err)
		ErrServerError.WriteError(w)
	}
}
