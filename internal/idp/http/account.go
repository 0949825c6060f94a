package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/gatehouse/internal/idp/gateway"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

// MeHandler serves GET /v1/me, reporting who the caller is. It sits
// behind the session middleware so browsers get the cookie-refresh
// behaviour for free; anonymous callers get an explicit unauthenticated
// body rather than an error.
type MeHandler struct {
	Gateway gateway.Resources
}

type meResponse struct {
	Authenticated bool     `json:"authenticated"`
	Principal     string   `json:"principal,omitempty"`
	Account       string   `json:"account,omitempty"`
	Username      string   `json:"username,omitempty"`
	Email         string   `json:"email,omitempty"`
	Scopes        []string `json:"scopes,omitempty"`
}

func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	principalID := httpx.PrincipalID(ctx)
	if principalID == "" {
		httpx.WriteJSON(w, http.StatusOK, meResponse{})
		return
	}

	resp := meResponse{
		Authenticated: true,
		Principal:     principalID,
		Account:       httpx.AccountHref(ctx),
		Scopes:        httpx.Scopes(ctx),
	}

	if resp.Account != "" {
		account, err := h.Gateway.GetAccount(ctx, resp.Account)
		switch {
		case err == nil:
			resp.Username = account.Username
			resp.Email = account.Email
		case errors.Is(err, gateway.ErrNotFound):
			// Session outlived the account; report the bare identity.
		default:
			log.Warn("account expansion failed", "err", err)
		}
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}
