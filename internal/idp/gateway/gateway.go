// Package gateway talks to the identity provider's REST API. It is the
// only component in the client that performs network I/O; everything
// above it treats these calls as cancellable, timeout-bound operations.
package gateway

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/gatehouse/internal/idp/domain"
)

var (
	// ErrNotFound the provider has no resource at that location.
	ErrNotFound = errors.New("gateway: resource not found")

	// ErrUpstream the provider could not be reached or answered with a
	// server error. Deliberately distinct from ErrNotFound so callers
	// never mistake an outage for a missing credential.
	ErrUpstream = errors.New("gateway: provider unavailable")

	// ErrInvalidLogin the provider rejected the login attempt.
	ErrInvalidLogin = errors.New("gateway: invalid login attempt")
)

// LoginAttempt carries the credentials of a password grant to the
// provider's login endpoint.
type LoginAttempt struct {
	Login    string
	Password string

	// AccountStoreHref optionally pins the attempt to one account store.
	AccountStoreHref string
}

// Resources fetches provider resources by id or href.
type Resources interface {
	GetAPIKey(ctx context.Context, id string) (domain.APIKey, error)
	GetAccount(ctx context.Context, href string) (domain.Account, error)
	VerifyLogin(ctx context.Context, attempt LoginAttempt) (domain.Account, error)
}
