package service

import (
	"context"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/idp/domain"
	"github.com/aussiebroadwan/gatehouse/internal/idp/gateway"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func newBearerFixture(t *testing.T) (*stubGateway, *BearerAuthenticator) {
	t.Helper()
	gw := newStubGateway()
	gw.addKey(enabledKey("client-1"))
	return gw, NewBearerAuthenticator(testSigning, testIssuer, gw)
}

func TestBearerAuthenticate(t *testing.T) {
	gw, s := newBearerFixture(t)
	ctx := context.Background()

	t.Run("valid token resolves principal and scopes", func(t *testing.T) {
		token := accessToken("client-1", []string{"read", "write"}, time.Hour)

		result, err := s.Authenticate(ctx, token)
		require.NoError(t, err)
		require.Equal(t, "client-1", result.Principal.ID)
		require.Equal(t, []string{"read", "write"}, result.Scopes)
		require.True(t, result.HasScope("write"))
		require.False(t, result.HasScope("admin"))
	})

	t.Run("expired token", func(t *testing.T) {
		token := accessToken("client-1", nil, -time.Minute)

		_, err := s.Authenticate(ctx, token)
		require.ErrorIs(t, err, ErrExpiredAccessToken)
	})

	t.Run("tampered token", func(t *testing.T) {
		token := accessToken("client-1", nil, time.Hour)
		other := accessToken("client-2", nil, time.Hour)
		parts := strings.Split(token, ".")
		otherParts := strings.Split(other, ".")
		spliced := parts[0] + "." + parts[1] + "." + otherParts[2]

		_, err := s.Authenticate(ctx, spliced)
		require.ErrorIs(t, err, ErrInvalidAccessToken)
	})

	t.Run("refresh token never passes as access", func(t *testing.T) {
		token := signToken(
			jwtx.NewRefreshClaims(testIssuer, "client-1", "jti-1", time.Hour, time.Now()),
			jwtx.TokenTypeRefresh,
		)

		_, err := s.Authenticate(ctx, token)
		require.ErrorIs(t, err, ErrInvalidAccessToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		token := signToken(
			jwtx.NewAccessClaims("https://evil.example.com", "client-1", nil, time.Hour, time.Now()),
			jwtx.TokenTypeAccess,
		)

		_, err := s.Authenticate(ctx, token)
		require.ErrorIs(t, err, ErrInvalidAccessToken)
	})

	t.Run("unknown subject", func(t *testing.T) {
		token := accessToken("ghost", nil, time.Hour)

		_, err := s.Authenticate(ctx, token)
		require.ErrorIs(t, err, ErrInvalidClient)
	})

	t.Run("disabled key", func(t *testing.T) {
		key := enabledKey("client-off")
		key.Status = domain.StatusDisabled
		gw.addKey(key)

		_, err := s.Authenticate(ctx, accessToken("client-off", nil, time.Hour))
		require.ErrorIs(t, err, ErrInvalidClient)
	})

	t.Run("disabled owning account", func(t *testing.T) {
		key := enabledKey("client-orphan")
		key.Account.Status = domain.StatusDisabled
		gw.addKey(key)

		_, err := s.Authenticate(ctx, accessToken("client-orphan", nil, time.Hour))
		require.ErrorIs(t, err, ErrInvalidClient)
	})

	t.Run("account subject", func(t *testing.T) {
		account := domain.Account{
			Href:     "https://api.example.com/v1/accounts/alice",
			Username: "alice",
			Status:   domain.StatusEnabled,
		}
		gw.addAccount(account)

		result, err := s.Authenticate(ctx, accessToken(account.Href, []string{"profile"}, time.Hour))
		require.NoError(t, err)
		require.Equal(t, account.Href, result.Principal.ID)
		require.Equal(t, "alice", result.Principal.Account.Username)
		require.Empty(t, result.Key.ID)
	})

	t.Run("upstream failure is not invalid_client", func(t *testing.T) {
		down := newStubGateway()
		down.err = gateway.ErrUpstream
		sDown := NewBearerAuthenticator(testSigning, testIssuer, down)

		_, err := sDown.Authenticate(ctx, accessToken("client-1", nil, time.Hour))
		require.ErrorIs(t, err, ErrUpstreamUnavailable)
		require.NotErrorIs(t, err, ErrInvalidClient)
	})
}

func TestBearerLegacyFormat(t *testing.T) {
	_, s := newBearerFixture(t)
	ctx := context.Background()

	t.Run("valid legacy token", func(t *testing.T) {
		token := EncodeLegacyToken("client-1", time.Now().Add(time.Hour), testSigning.Key)

		result, err := s.Authenticate(ctx, token)
		require.NoError(t, err)
		require.Equal(t, "client-1", result.Principal.ID)
		require.Empty(t, result.Scopes)
	})

	t.Run("expired legacy token", func(t *testing.T) {
		token := EncodeLegacyToken("client-1", time.Now().Add(-time.Minute), testSigning.Key)

		_, err := s.Authenticate(ctx, token)
		require.ErrorIs(t, err, ErrExpiredAccessToken)
	})

	t.Run("forged legacy token", func(t *testing.T) {
		token := EncodeLegacyToken("client-1", time.Now().Add(time.Hour), []byte("some-other-key"))

		_, err := s.Authenticate(ctx, token)
		require.ErrorIs(t, err, ErrInvalidAccessToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := s.Authenticate(ctx, "not a token at all")
		require.ErrorIs(t, err, ErrInvalidAccessToken)
	})
}

func TestBearerAuthenticateRequest(t *testing.T) {
	_, s := newBearerFixture(t)
	token := accessToken("client-1", []string{"read"}, time.Hour)

	t.Run("authorization header", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/resource", nil)
		r.Header.Set("Authorization", "Bearer "+token)

		result, err := s.AuthenticateRequest(r)
		require.NoError(t, err)
		require.Equal(t, "client-1", result.Principal.ID)
	})

	t.Run("form body", func(t *testing.T) {
		form := url.Values{"access_token": {token}}
		r := httptest.NewRequest("POST", "/resource", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		_, err := s.AuthenticateRequest(r)
		require.NoError(t, err)
	})

	t.Run("query is off by default", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/resource?access_token="+url.QueryEscape(token), nil)

		_, err := s.AuthenticateRequest(r)
		require.ErrorIs(t, err, ErrMissingCredentials)
	})

	t.Run("query honoured when configured", func(t *testing.T) {
		gw := newStubGateway()
		gw.addKey(enabledKey("client-1"))
		sq := NewBearerAuthenticator(testSigning, testIssuer, gw,
			httpx.LocationHeader, httpx.LocationBody, httpx.LocationQuery)

		r := httptest.NewRequest("GET", "/resource?access_token="+url.QueryEscape(token), nil)
		_, err := sq.AuthenticateRequest(r)
		require.NoError(t, err)
	})

	t.Run("no token anywhere", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/resource", nil)

		_, err := s.AuthenticateRequest(r)
		require.ErrorIs(t, err, ErrMissingCredentials)
	})
}
