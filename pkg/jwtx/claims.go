package jwtx

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTLs. Access tokens are short-lived; refresh tokens live
// for a year so browser sessions survive long gaps between visits.
const (
	DefaultAccessTokenTTL  = 1 * time.Hour
	DefaultRefreshTokenTTL = 365 * 24 * time.Hour
)

// Claims are the token claims used across the credential flows. Access
// and refresh tokens use the registered fields plus Scope; assertion
// callbacks additionally carry the federation fields.
type Claims struct {
	jwt.RegisteredClaims

	// Scope is the space-delimited granted scope, in grant order.
	Scope string `json:"scope,omitempty"`

	/* Federation callback fields (signed assertion payloads) */

	// Status of the federation exchange: "AUTHENTICATED" or "LOGOUT".
	Status string `json:"status,omitempty"`

	// ResponseID is the single-use correlation id of the callback,
	// checked against the nonce store for replay.
	ResponseID string `json:"irt,omitempty"`

	// IsNewSubject marks a subject created during this exchange.
	IsNewSubject bool `json:"isNewSub,omitempty"`

	// State is the opaque application state echoed back by the provider.
	State string `json:"state,omitempty"`

	// Error carries a structured upstream failure instead of a result.
	Error *AssertionError `json:"err,omitempty"`
}

// AssertionError is the structured error object an identity provider may
// embed in a callback payload in place of a successful assertion.
type AssertionError struct {
	Code             int    `json:"code,omitempty"`
	Status           int    `json:"status,omitempty"`
	Message          string `json:"message,omitempty"`
	DeveloperMessage string `json:"developerMessage,omitempty"`
	MoreInfo         string `json:"moreInfo,omitempty"`
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion error %d: %s", e.Code, e.Message)
}

// NewAccessClaims builds minimally-correct access-token claims. Scopes
// are space-joined preserving grant order. Access tokens carry no jti;
// identical inputs at the same instant produce identical tokens.
func NewAccessClaims(issuer, subject string, scopes []string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Scope: strings.Join(scopes, " "),
	}
}

// NewRefreshClaims builds refresh-token claims. The jti makes every
// refresh token unique so rotation can retire individual tokens.
func NewRefreshClaims(issuer, subject, jti string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
	}
}

// ScopeSet splits the scope claim into individual scopes, preserving
// order. Absent claim yields nil.
func (c *Claims) ScopeSet() []string {
	s := strings.TrimSpace(c.Scope)
	if s == "" {
		return nil
	}
	return strings.Fields(s)
}

// ValidateIssuer checks if the issuer matches the expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't used
// before it is valid (nbf). Expiry is exclusive: a token is already
// expired at the instant exp names.
func (c *Claims) ValidateExpiry(now time.Time) error {
	if c.ExpiresAt != nil && !now.Before(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}
	return nil
}
