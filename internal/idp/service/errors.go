// Package service implements the credential flows of the client: token
// issuance, grant authentication, bearer validation, cookie session
// resolution and signed assertion processing.
package service

import "errors"

var (
	// Token endpoint request shape failures. These are distinguishable
	// from authentication failures so handlers can answer with the right
	// OAuth2 error code.
	ErrMissingCredentials   = errors.New("missing_credentials")
	ErrUnsupportedScheme    = errors.New("unsupported_authentication_scheme")
	ErrUnsupportedGrantType = errors.New("unsupported_grant_type")
	ErrInvalidRequest       = errors.New("invalid_request")

	// Authentication failures.
	ErrInvalidClient      = errors.New("invalid_client")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidAccessToken = errors.New("invalid_access_token")
	ErrExpiredAccessToken = errors.New("expired_access_token")
	ErrInvalidRefresh     = errors.New("invalid_refresh_token")

	// Assertion callback failures.
	ErrInvalidIssuerKey  = errors.New("invalid_issuer_key")
	ErrExpiredAssertion  = errors.New("expired_assertion")
	ErrReplayedAssertion = errors.New("replayed_assertion")
	ErrMissingClaim      = errors.New("missing_required_claim")
	ErrInvalidAssertion  = errors.New("invalid_assertion")

	// ErrUpstreamUnavailable marks a resource gateway transport failure.
	// It is never conflated with a credential being wrong.
	ErrUpstreamUnavailable = errors.New("upstream_unavailable")

	// ErrIllegalTTL rejects non-positive token lifetimes at issue time.
	ErrIllegalTTL = errors.New("token ttl must be positive")
)
