package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/gatehouse/internal/idp/domain"
	"github.com/aussiebroadwan/gatehouse/internal/idp/service"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

// SamlCallbackHandler serves GET /v1/saml/callback, the URL the identity
// provider redirects browsers back to with a signed, JWT-encoded
// assertion in the jwtResponse query parameter.
//
// A verified AUTHENTICATED assertion establishes a cookie session for
// the asserted account; LOGOUT tears it down. When the assertion echoed
// back an application state it is treated as the post-login redirect
// target.
type SamlCallbackHandler struct {
	Processor *service.SamlProcessor
	Tokens    *service.TokenIssuer
	Cookies   *httpx.SessionCookies
}

func (h *SamlCallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	assertion := r.URL.Query().Get("jwtResponse")
	if assertion == "" {
		ErrInvalidRequest.WriteError(w)
		return
	}

	result, err := h.Processor.Process(r.Context(), assertion)
	if err != nil {
		writeAssertionError(w, r, err)
		return
	}

	switch result.Status {
	case domain.AssertionAuthenticated:
		if h.Cookies != nil && h.Tokens != nil {
			principal := domain.Principal{ID: result.AccountHref}
			pair, err := h.Tokens.IssuePair(principal, nil)
			if err != nil {
				log.Error("session issue after assertion failed", "err", err)
				ErrServerError.WriteError(w)
				return
			}
			h.Cookies.WriteAccess(w, r, pair.AccessToken)
			h.Cookies.WriteRefresh(w, r, pair.RefreshToken)
		}
	case domain.AssertionLogout:
		if h.Cookies != nil {
			h.Cookies.Clear(w, r)
		}
	}

	if result.State != "" {
		http.Redirect(w, r, result.State, http.StatusFound)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"status":       result.Status,
		"account":      result.AccountHref,
		"isNewAccount": result.IsNewAccount,
	})
}

func writeAssertionError(w http.ResponseWriter, r *http.Request, err error) {
	log := slogx.FromContext(r.Context())

	var fed *service.FederationError
	switch {
	case errors.As(err, &fed):
		log.Info("assertion carried provider error", "code", fed.Code, "message", fed.Message)
		(&OAuth2Error{
			StatusCode:  http.StatusBadGateway,
			Code:        "federation_error",
			Description: fed.Message,
		}).WriteError(w)
	case errors.Is(err, service.ErrReplayedAssertion):
		(&OAuth2Error{
			StatusCode:  http.StatusConflict,
			Code:        "replayed_assertion",
			Description: "the assertion has already been consumed",
		}).WriteError(w)
	case errors.Is(err, service.ErrExpiredAssertion):
		(&OAuth2Error{
			StatusCode:  http.StatusUnauthorized,
			Code:        "expired_assertion",
			Description: "the assertion has expired",
		}).WriteError(w)
	case errors.Is(err, service.ErrInvalidIssuerKey),
		errors.Is(err, service.ErrMissingClaim),
		errors.Is(err, service.ErrInvalidAssertion):
		(&OAuth2Error{
			StatusCode:  http.StatusUnauthorized,
			Code:        "invalid_assertion",
			Description: "the assertion could not be verified",
		}).WriteError(w)
	default:
		log.Error("assertion processing failed", "err", err)
		ErrServerError.WriteError(w)
	}
}
