// Package memory provides the default in-process nonce store. Suitable
// for single-instance deployments; multi-instance deployments should use
// the sqlite driver on shared storage.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/idp/store"
)

type Store struct {
	nonces noncesRepo
}

func NewStore() *Store {
	return &Store{
		nonces: noncesRepo{seen: make(map[string]time.Time)},
	}
}

func (s *Store) Nonces() store.Nonces         { return &s.nonces }
func (s *Store) Ping(_ context.Context) error { return nil }
func (s *Store) Close() error                 { return nil }

type noncesRepo struct {
	mu   sync.Mutex
	seen map[string]time.Time // id -> expiry
}

func (r *noncesRepo) CheckAndInsert(_ context.Context, id string, expiresAt time.Time) error {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if exp, ok := r.seen[id]; ok && now.Before(exp) {
		return store.ErrReplayed
	}
	// Absent or lapsed: record under a single lock so the check and the
	// insert cannot interleave with a racing request.
	r.seen[id] = expiresAt
	return nil
}

func (r *noncesRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var dropped int64
	for id, exp := range r.seen {
		if !now.Before(exp) {
			delete(r.seen, id)
			dropped++
		}
	}
	return dropped, nil
}
