package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/idp/domain"
	"github.com/aussiebroadwan/gatehouse/internal/idp/gateway"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

// BearerAuthenticator validates inbound access tokens and resolves them
// to an enabled principal. Both token formats run through the same
// pipeline; only the structural parsing differs.
type BearerAuthenticator struct {
	Signing jwtx.SigningContext
	Issuer  string
	Gateway gateway.Resources

	// Locations searched for the token, in order. Nil means the package
	// default of header then body.
	Locations []httpx.TokenLocation

	now func() time.Time
}

func NewBearerAuthenticator(signing jwtx.SigningContext, issuer string, gw gateway.Resources, locations ...httpx.TokenLocation) *BearerAuthenticator {
	return &BearerAuthenticator{
		Signing:   signing,
		Issuer:    issuer,
		Gateway:   gw,
		Locations: locations,
		now:       time.Now,
	}
}

func (s *BearerAuthenticator) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// AuthenticateRequest extracts the bearer token from the request and
// authenticates it. Absence of a token is ErrMissingCredentials.
func (s *BearerAuthenticator) AuthenticateRequest(r *http.Request) (domain.AuthResult, error) {
	token, err := httpx.ExtractBearer(r, s.Locations...)
	if err != nil {
		return domain.AuthResult{}, ErrMissingCredentials
	}
	return s.Authenticate(r.Context(), token)
}

// Authenticate verifies the token signature and expiry, then resolves
// its subject through the gateway and checks the principal is enabled.
func (s *BearerAuthenticator) Authenticate(ctx context.Context, token string) (domain.AuthResult, error) {
	subject, scopes, err := s.verify(token)
	if err != nil {
		return domain.AuthResult{}, err
	}
	return s.resolve(ctx, subject, scopes)
}

// verify handles the format-specific portion: signature and expiry.
func (s *BearerAuthenticator) verify(token string) (subject string, scopes []string, err error) {
	now := s.clock()

	switch DetectTokenFormat(token) {
	case FormatLegacy:
		lt, err := parseLegacyToken(token, s.Signing.Key)
		if err != nil {
			return "", nil, err
		}
		if !now.Before(lt.ExpiresAt) {
			return "", nil, ErrExpiredAccessToken
		}
		return lt.KeyID, nil, nil

	default:
		claims, err := jwtx.Verify(token, jwtx.StaticKey(s.Signing), jwtx.VerifyOptions{
			Issuer:    s.Issuer,
			TokenType: jwtx.TokenTypeAccess,
		})
		if err != nil {
			return "", nil, ErrInvalidAccessToken
		}
		if err := claims.ValidateExpiry(now); err != nil {
			if errors.Is(err, jwtx.ErrExpired) {
				return "", nil, ErrExpiredAccessToken
			}
			return "", nil, ErrInvalidAccessToken
		}
		if claims.Subject == "" {
			return "", nil, ErrInvalidAccessToken
		}
		return claims.Subject, claims.ScopeSet(), nil
	}
}

func (s *BearerAuthenticator) resolve(ctx context.Context, subject string, scopes []string) (domain.AuthResult, error) {
	principal, key, err := resolvePrincipal(ctx, s.Gateway, subject)
	if err != nil {
		return domain.AuthResult{}, err
	}
	return domain.AuthResult{Principal: principal, Key: key, Scopes: scopes}, nil
}

// resolvePrincipal turns a token subject into a live, enabled principal.
// Subjects with a path separator are account hrefs from password grants;
// the rest are API key ids.
func resolvePrincipal(ctx context.Context, gw gateway.Resources, subject string) (domain.Principal, domain.APIKey, error) {
	l := slogx.FromContext(ctx)

	if strings.Contains(subject, "/") {
		account, err := gw.GetAccount(ctx, subject)
		if err != nil {
			return domain.Principal{}, domain.APIKey{}, mapGatewayError(err)
		}
		if !account.Enabled() {
			l.Info("principal rejected: account disabled", "account", subject)
			return domain.Principal{}, domain.APIKey{}, ErrInvalidClient
		}
		return domain.Principal{ID: subject, Account: account}, domain.APIKey{}, nil
	}

	key, err := gw.GetAPIKey(ctx, subject)
	if err != nil {
		return domain.Principal{}, domain.APIKey{}, mapGatewayError(err)
	}
	if !key.Enabled() || !key.Account.Enabled() {
		l.Info("principal rejected: key or account disabled", "key_id", subject)
		return domain.Principal{}, domain.APIKey{}, ErrInvalidClient
	}
	return domain.Principal{ID: key.ID, Account: key.Account}, key, nil
}

// mapGatewayError keeps transport failures distinct from bad
// credentials: a flapping upstream must never look like invalid_client.
func mapGatewayError(err error) error {
	if errors.Is(err, gateway.ErrNotFound) {
		return ErrInvalidClient
	}
	return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
}
