package http

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/idp/domain"
	"github.com/aussiebroadwan/gatehouse/internal/idp/gateway"
	"github.com/aussiebroadwan/gatehouse/internal/idp/service"
	"github.com/aussiebroadwan/gatehouse/internal/idp/store/drivers/memory"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

const (
	testIssuer   = "https://api.example.com/v1/applications/app1"
	testClientID = "client-1"
	testSecret   = "secret-for-client-1"
)

var testSigning = jwtx.SigningContext{
	KID: testClientID,
	Key: []byte("a-sufficiently-long-hmac-signing-secret"),
}

type fakeGateway struct {
	keys     map[string]domain.APIKey
	accounts map[string]domain.Account

	loginAccount  domain.Account
	loginPassword string

	err error
}

func newFakeGateway() *fakeGateway {
	account := domain.Account{
		Href:     "https://api.example.com/v1/accounts/alice",
		Username: "alice",
		Email:    "alice@example.com",
		Status:   domain.StatusEnabled,
	}
	key := domain.APIKey{
		ID:     testClientID,
		Secret: testSecret,
		Status: domain.StatusEnabled,
		Account: domain.Account{
			Href:     "https://api.example.com/v1/accounts/svc",
			Username: "svc",
			Status:   domain.StatusEnabled,
		},
	}
	return &fakeGateway{
		keys: map[string]domain.APIKey{key.ID: key},
		accounts: map[string]domain.Account{
			account.Href:     account,
			key.Account.Href: key.Account,
		},
		loginAccount:  account,
		loginPassword: "correct horse battery staple",
	}
}

func (g *fakeGateway) GetAPIKey(_ context.Context, id string) (domain.APIKey, error) {
	if g.err != nil {
		return domain.APIKey{}, g.err
	}
	key, ok := g.keys[id]
	if !ok {
		return domain.APIKey{}, gateway.ErrNotFound
	}
	return key, nil
}

func (g *fakeGateway) GetAccount(_ context.Context, href string) (domain.Account, error) {
	if g.err != nil {
		return domain.Account{}, g.err
	}
	account, ok := g.accounts[href]
	if !ok {
		return domain.Account{}, gateway.ErrNotFound
	}
	return account, nil
}

func (g *fakeGateway) VerifyLogin(_ context.Context, attempt gateway.LoginAttempt) (domain.Account, error) {
	if g.err != nil {
		return domain.Account{}, g.err
	}
	if attempt.Login != g.loginAccount.Username || attempt.Password != g.loginPassword {
		return domain.Account{}, gateway.ErrInvalidLogin
	}
	return g.loginAccount, nil
}

// newTestRouter wires a full router over the fake gateway and an
// in-memory nonce store.
func newTestRouter(t *testing.T) (*fakeGateway, *Router) {
	t.Helper()

	gw := newFakeGateway()
	st := memory.NewStore()

	tokens := service.NewTokenIssuer(testSigning, testIssuer, time.Hour, 24*time.Hour)
	grants := service.NewGrantAuthenticator(tokens, gw, nil)
	bearer := service.NewBearerAuthenticator(testSigning, testIssuer, gw)
	cookies := &httpx.SessionCookies{
		Access:  httpx.CookieConfig{Name: "gh_access", HTTPOnly: true},
		Refresh: httpx.CookieConfig{Name: "gh_refresh", HTTPOnly: true},
	}
	sessions := service.NewSessionResolver(bearer, grants, cookies)
	saml := service.NewSamlProcessor(testSigning, st.Nonces())

	r := NewRouter("test", testClientID, st, gw, cookies, slogx.New(slogx.Config{Level: "error"}))
	r.Tokens = tokens
	r.Grants = grants
	r.Bearer = bearer
	r.Sessions = sessions
	r.Saml = saml
	r.ApplyRoutes()

	return gw, r
}
