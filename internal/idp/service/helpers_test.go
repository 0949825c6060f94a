package service

import (
	"context"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/idp/domain"
	"github.com/aussiebroadwan/gatehouse/internal/idp/gateway"
	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
)

const testIssuer = "https://api.example.com/v1/applications/app1"

var testSigning = jwtx.SigningContext{
	KID: "3FX81BISUZG1KPB8PFGP4TN3A",
	Key: []byte("a-sufficiently-long-hmac-signing-secret"),
}

// stubGateway serves canned resources and records login attempts.
type stubGateway struct {
	keys     map[string]domain.APIKey
	accounts map[string]domain.Account

	// loginAccount is returned for any VerifyLogin call whose password
	// matches loginPassword.
	loginAccount  domain.Account
	loginPassword string

	// err, when set, is returned by every call.
	err error
}

func newStubGateway() *stubGateway {
	return &stubGateway{
		keys:     make(map[string]domain.APIKey),
		accounts: make(map[string]domain.Account),
	}
}

func (g *stubGateway) addKey(key domain.APIKey) {
	g.keys[key.ID] = key
	if key.Account.Href != "" {
		g.accounts[key.Account.Href] = key.Account
	}
}

func (g *stubGateway) addAccount(account domain.Account) {
	g.accounts[account.Href] = account
}

func (g *stubGateway) GetAPIKey(_ context.Context, id string) (domain.APIKey, error) {
	if g.err != nil {
		return domain.APIKey{}, g.err
	}
	key, ok := g.keys[id]
	if !ok {
		return domain.APIKey{}, gateway.ErrNotFound
	}
	return key, nil
}

func (g *stubGateway) GetAccount(_ context.Context, href string) (domain.Account, error) {
	if g.err != nil {
		return domain.Account{}, g.err
	}
	account, ok := g.accounts[href]
	if !ok {
		return domain.Account{}, gateway.ErrNotFound
	}
	return account, nil
}

func (g *stubGateway) VerifyLogin(_ context.Context, attempt gateway.LoginAttempt) (domain.Account, error) {
	if g.err != nil {
		return domain.Account{}, g.err
	}
	if attempt.Login != g.loginAccount.Username || attempt.Password != g.loginPassword {
		return domain.Account{}, gateway.ErrInvalidLogin
	}
	return g.loginAccount, nil
}

func enabledKey(id string) domain.APIKey {
	return domain.APIKey{
		ID:     id,
		Secret: "secret-for-" + id,
		Status: domain.StatusEnabled,
		Account: domain.Account{
			Href:     "https://api.example.com/v1/accounts/" + id,
			Username: "owner-of-" + id,
			Status:   domain.StatusEnabled,
		},
	}
}

func signToken(claims jwtx.Claims, tt jwtx.TokenType) string {
	token, err := jwtx.Sign(claims, tt, testSigning)
	if err != nil {
		panic(err)
	}
	return token
}

func accessToken(subject string, scopes []string, ttl time.Duration) string {
	return signToken(jwtx.NewAccessClaims(testIssuer, subject, scopes, ttl, time.Now()), jwtx.TokenTypeAccess)
}
