package service

import (
	"strings"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/idp/domain"
	"github.com/aussiebroadwan/gatehouse/pkg/idx"
	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
)

// TokenIssuer mints signed access and refresh tokens for authenticated
// principals. The issuer claim is the application href; the subject is
// whatever the principal resolved to. Stateless and safe for concurrent
// use.
type TokenIssuer struct {
	Signing jwtx.SigningContext

	// Issuer is the application href written into the iss claim.
	Issuer string

	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// now is swapped in tests to pin the clock.
	now func() time.Time
}

func NewTokenIssuer(signing jwtx.SigningContext, issuer string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	if accessTTL == 0 {
		accessTTL = jwtx.DefaultAccessTokenTTL
	}
	if refreshTTL == 0 {
		refreshTTL = jwtx.DefaultRefreshTokenTTL
	}
	return &TokenIssuer{
		Signing:    signing,
		Issuer:     issuer,
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (s *TokenIssuer) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// IssueAccess mints an access token for the principal with the given
// scope set. The scope claim preserves grant order.
func (s *TokenIssuer) IssueAccess(principal domain.Principal, scopes []string, ttl time.Duration) (string, error) {
	if ttl == 0 {
		ttl = s.AccessTTL
	}
	if ttl <= 0 {
		return "", ErrIllegalTTL
	}
	claims := jwtx.NewAccessClaims(s.Issuer, principal.ID, scopes, ttl, s.clock())
	return jwtx.Sign(claims, jwtx.TokenTypeAccess, s.Signing)
}

// IssueRefresh mints a refresh token. Every refresh token carries a
// unique jti so rotation can retire the one that was just redeemed.
func (s *TokenIssuer) IssueRefresh(principal domain.Principal, ttl time.Duration) (string, error) {
	if ttl == 0 {
		ttl = s.RefreshTTL
	}
	if ttl <= 0 {
		return "", ErrIllegalTTL
	}
	claims := jwtx.NewRefreshClaims(s.Issuer, principal.ID, idx.New().String(), ttl, s.clock())
	return jwtx.Sign(claims, jwtx.TokenTypeRefresh, s.Signing)
}

// IssuePair mints an access and refresh token and packages them as a
// token endpoint response.
func (s *TokenIssuer) IssuePair(principal domain.Principal, scopes []string) (domain.TokenResponse, error) {
	access, err := s.IssueAccess(principal, scopes, s.AccessTTL)
	if err != nil {
		return domain.TokenResponse{}, err
	}
	refresh, err := s.IssueRefresh(principal, s.RefreshTTL)
	if err != nil {
		return domain.TokenResponse{}, err
	}
	return domain.TokenResponse{
		AccessToken:  access,
		TokenType:    domain.TokenTypeBearer,
		ExpiresIn:    int(s.AccessTTL.Seconds()),
		RefreshToken: refresh,
		Scope:        joinScopes(scopes),
	}, nil
}

// AccessOnly packages a lone access token as a token endpoint response.
func (s *TokenIssuer) AccessOnly(principal domain.Principal, scopes []string) (domain.TokenResponse, error) {
	access, err := s.IssueAccess(principal, scopes, s.AccessTTL)
	if err != nil {
		return domain.TokenResponse{}, err
	}
	return domain.TokenResponse{
		AccessToken: access,
		TokenType:   domain.TokenTypeBearer,
		ExpiresIn:   int(s.AccessTTL.Seconds()),
		Scope:       joinScopes(scopes),
	}, nil
}

func joinScopes(scopes []string) string {
	return strings.Join(scopes, " ")
}
