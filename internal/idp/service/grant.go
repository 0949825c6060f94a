package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/idp/domain"
	"github.com/aussiebroadwan/gatehouse/internal/idp/gateway"
	"github.com/aussiebroadwan/gatehouse/internal/idp/store"
	"github.com/aussiebroadwan/gatehouse/pkg/cryptox"
	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

// ScopeFactory decides the scope actually granted to a principal that
// requested the given scope. Implementations may narrow, widen or
// reorder; the result is what gets signed into the token.
type ScopeFactory func(principal domain.Principal, requested []string) []string

// EchoScopeFactory grants exactly what was requested. Deployments with
// a scope policy plug their own factory in.
func EchoScopeFactory(_ domain.Principal, requested []string) []string {
	return requested
}

// GrantAuthenticator authenticates OAuth2 token endpoint exchanges and
// mints the resulting tokens. Each supported grant is one method; the
// dispatch is a single switch on the request's type tag.
type GrantAuthenticator struct {
	Tokens  *TokenIssuer
	Gateway gateway.Resources
	Scopes  ScopeFactory

	// Nonces retires redeemed refresh tokens when rotation is on. The
	// jti of each rotated-out token is recorded until the token would
	// have expired anyway.
	Nonces        store.Nonces
	RotateRefresh bool

	now func() time.Time
}

func NewGrantAuthenticator(tokens *TokenIssuer, gw gateway.Resources, scopes ScopeFactory) *GrantAuthenticator {
	if scopes == nil {
		scopes = EchoScopeFactory
	}
	return &GrantAuthenticator{
		Tokens:  tokens,
		Gateway: gw,
		Scopes:  scopes,
		now:     time.Now,
	}
}

func (s *GrantAuthenticator) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// Authenticate runs the grant named by the request. The returned
// principal is the identity the tokens were minted for.
func (s *GrantAuthenticator) Authenticate(ctx context.Context, req domain.GrantRequest) (domain.TokenResponse, domain.Principal, error) {
	switch req.Type {
	case domain.GrantClientCredentials:
		return s.clientCredentials(ctx, req)
	case domain.GrantPassword:
		return s.password(ctx, req)
	case domain.GrantRefreshToken:
		return s.refresh(ctx, req)
	default:
		return domain.TokenResponse{}, domain.Principal{}, ErrUnsupportedGrantType
	}
}

func (s *GrantAuthenticator) clientCredentials(ctx context.Context, req domain.GrantRequest) (domain.TokenResponse, domain.Principal, error) {
	l := slogx.FromContext(ctx)

	if req.ClientID == "" {
		return domain.TokenResponse{}, domain.Principal{}, ErrMissingCredentials
	}

	key, err := s.Gateway.GetAPIKey(ctx, req.ClientID)
	if err != nil {
		return domain.TokenResponse{}, domain.Principal{}, mapGatewayError(err)
	}

	if !cryptox.ConstantTimeEquals(key.Secret, req.ClientSecret) {
		l.Info("client_credentials grant rejected: bad secret", slog.String("client_id", req.ClientID))
		return domain.TokenResponse{}, domain.Principal{}, ErrInvalidClient
	}
	if !key.Enabled() || !key.Account.Enabled() {
		l.Info("client_credentials grant rejected: disabled", slog.String("client_id", req.ClientID))
		return domain.TokenResponse{}, domain.Principal{}, ErrInvalidClient
	}

	principal := domain.Principal{ID: key.ID, Account: key.Account}
	scopes := s.Scopes(principal, req.RequestedScope)

	// Machine clients re-authenticate with their key; no refresh token.
	resp, err := s.Tokens.AccessOnly(principal, scopes)
	if err != nil {
		return domain.TokenResponse{}, domain.Principal{}, err
	}
	return resp, principal, nil
}

func (s *GrantAuthenticator) password(ctx context.Context, req domain.GrantRequest) (domain.TokenResponse, domain.Principal, error) {
	l := slogx.FromContext(ctx)

	if req.Username == "" || req.Password == "" {
		return domain.TokenResponse{}, domain.Principal{}, ErrInvalidRequest
	}

	account, err := s.Gateway.VerifyLogin(ctx, gateway.LoginAttempt{
		Login:            req.Username,
		Password:         req.Password,
		AccountStoreHref: req.AccountStoreHref,
	})
	if err != nil {
		if errors.Is(err, gateway.ErrInvalidLogin) {
			l.Info("password grant rejected", slog.String("login", req.Username))
			return domain.TokenResponse{}, domain.Principal{}, ErrInvalidCredentials
		}
		return domain.TokenResponse{}, domain.Principal{}, mapGatewayError(err)
	}
	if !account.Enabled() {
		l.Info("password grant rejected: account disabled", slog.String("account", account.Href))
		return domain.TokenResponse{}, domain.Principal{}, ErrInvalidCredentials
	}

	principal := domain.Principal{ID: account.Href, Account: account}
	scopes := s.Scopes(principal, req.RequestedScope)

	resp, err := s.Tokens.IssuePair(principal, scopes)
	if err != nil {
		return domain.TokenResponse{}, domain.Principal{}, err
	}
	return resp, principal, nil
}

func (s *GrantAuthenticator) refresh(ctx context.Context, req domain.GrantRequest) (domain.TokenResponse, domain.Principal, error) {
	l := slogx.FromContext(ctx)

	if req.RefreshToken == "" {
		return domain.TokenResponse{}, domain.Principal{}, ErrInvalidRequest
	}

	claims, err := jwtx.Verify(req.RefreshToken, jwtx.StaticKey(s.Tokens.Signing), jwtx.VerifyOptions{
		Issuer:    s.Tokens.Issuer,
		TokenType: jwtx.TokenTypeRefresh,
	})
	if err != nil {
		l.Info("refresh grant rejected", slog.String("reason", err.Error()))
		return domain.TokenResponse{}, domain.Principal{}, ErrInvalidRefresh
	}
	if err := claims.ValidateExpiry(s.clock()); err != nil {
		return domain.TokenResponse{}, domain.Principal{}, ErrInvalidRefresh
	}
	if claims.Subject == "" {
		return domain.TokenResponse{}, domain.Principal{}, ErrInvalidRefresh
	}

	principal, _, err := resolvePrincipal(ctx, s.Gateway, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrInvalidClient) {
			return domain.TokenResponse{}, domain.Principal{}, ErrInvalidRefresh
		}
		return domain.TokenResponse{}, domain.Principal{}, err
	}

	scopes := s.Scopes(principal, req.RequestedScope)

	if !s.RotateRefresh || s.Nonces == nil {
		// Without rotation the presented token stays live; hand it back
		// so cookie-based callers keep a full pair.
		resp, err := s.Tokens.AccessOnly(principal, scopes)
		if err != nil {
			return domain.TokenResponse{}, domain.Principal{}, err
		}
		resp.RefreshToken = req.RefreshToken
		return resp, principal, nil
	}

	// Rotation: the redeemed token's jti is retired for the remainder of
	// its lifetime. A replayed token loses here, atomically.
	if claims.ID == "" {
		return domain.TokenResponse{}, domain.Principal{}, ErrInvalidRefresh
	}
	expiresAt := s.clock().Add(jwtx.DefaultRefreshTokenTTL)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := s.Nonces.CheckAndInsert(ctx, "refresh:"+claims.ID, expiresAt); err != nil {
		if errors.Is(err, store.ErrReplayed) {
			l.Warn("refresh token replayed", slog.String("jti", claims.ID))
			return domain.TokenResponse{}, domain.Principal{}, ErrInvalidRefresh
		}
		return domain.TokenResponse{}, domain.Principal{}, err
	}

	resp, err := s.Tokens.IssuePair(principal, scopes)
	if err != nil {
		return domain.TokenResponse{}, domain.Principal{}, err
	}
	return resp, principal, nil
}
