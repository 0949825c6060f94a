package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a record doesn't exist.
	ErrNotFound = errors.New("store: not found")

	// ErrReplayed is returned by CheckAndInsert when the nonce has been
	// seen before within its validity window.
	ErrReplayed = errors.New("store: nonce already used")
)

// Nonces records single-use identifiers to detect replay. Entries carry
// an expiry no earlier than the signed token they guard, and are removed
// by the housekeeping sweep.
type Nonces interface {
	// CheckAndInsert atomically verifies the nonce is unseen and records
	// it. Two concurrent calls with the same id must not both succeed;
	// the loser gets ErrReplayed.
	CheckAndInsert(ctx context.Context, id string, expiresAt time.Time) error

	// DeleteExpired removes entries whose expiry has passed, returning
	// how many were dropped.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Store aggregates the persistence surfaces of the client.
type Store interface {
	Nonces() Nonces
	Ping(ctx context.Context) error
	Close() error
}
