package gateway_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aussiebroadwan/gatehouse/internal/idp/domain"
	"github.com/aussiebroadwan/gatehouse/internal/idp/gateway"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// countingResources records how many times each upstream call is made.
type countingResources struct {
	keys     map[string]domain.APIKey
	accounts map[string]domain.Account

	keyCalls     int
	accountCalls int
	loginCalls   int
}

func (r *countingResources) GetAPIKey(ctx context.Context, id string) (domain.APIKey, error) {
	r.keyCalls++
	key, ok := r.keys[id]
	if !ok {
		return domain.APIKey{}, gateway.ErrNotFound
	}
	return key, nil
}

func (r *countingResources) GetAccount(ctx context.Context, href string) (domain.Account, error) {
	r.accountCalls++
	account, ok := r.accounts[href]
	if !ok {
		return domain.Account{}, gateway.ErrNotFound
	}
	return account, nil
}

func (r *countingResources) VerifyLogin(ctx context.Context, attempt gateway.LoginAttempt) (domain.Account, error) {
	r.loginCalls++
	return domain.Account{Href: "/accounts/" + attempt.Login, Status: domain.StatusEnabled}, nil
}

func newCacheFixture(t *testing.T) (*countingResources, *gateway.CachedResources, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	upstream := &countingResources{
		keys: map[string]domain.APIKey{
			"key1": {ID: "key1", Secret: "s3cret", Status: domain.StatusEnabled},
		},
		accounts: map[string]domain.Account{
			"/accounts/alice": {Href: "/accounts/alice", Username: "alice", Status: domain.StatusEnabled},
		},
	}

	return upstream, gateway.NewCachedResources(upstream, rdb, time.Minute), mr
}

func TestCachedResourcesGetAPIKey(t *testing.T) {
	upstream, cached, _ := newCacheFixture(t)
	ctx := context.Background()

	for range 3 {
		key, err := cached.GetAPIKey(ctx, "key1")
		require.NoError(t, err)
		require.Equal(t, "s3cret", key.Secret)
	}
	require.Equal(t, 1, upstream.keyCalls)

	t.Run("misses are not cached", func(t *testing.T) {
		_, err := cached.GetAPIKey(ctx, "ghost")
		require.ErrorIs(t, err, gateway.ErrNotFound)
		_, err = cached.GetAPIKey(ctx, "ghost")
		require.ErrorIs(t, err, gateway.ErrNotFound)
		require.Equal(t, 3, upstream.keyCalls)
	})
}

func TestCachedResourcesGetAccount(t *testing.T) {
	upstream, cached, mr := newCacheFixture(t)
	ctx := context.Background()

	for range 2 {
		account, err := cached.GetAccount(ctx, "/accounts/alice")
		require.NoError(t, err)
		require.Equal(t, "alice", account.Username)
	}
	require.Equal(t, 1, upstream.accountCalls)

	t.Run("entries expire", func(t *testing.T) {
		mr.FastForward(2 * time.Minute)

		_, err := cached.GetAccount(ctx, "/accounts/alice")
		require.NoError(t, err)
		require.Equal(t, 2, upstream.accountCalls)
	})

	t.Run("invalidation forces a refetch", func(t *testing.T) {
		cached.InvalidateAccount(ctx, "/accounts/alice")

		_, err := cached.GetAccount(ctx, "/accounts/alice")
		require.NoError(t, err)
		require.Equal(t, 3, upstream.accountCalls)
	})
}

func TestCachedResourcesLoginNeverCached(t *testing.T) {
	upstream, cached, _ := newCacheFixture(t)
	ctx := context.Background()

	for range 3 {
		_, err := cached.VerifyLogin(ctx, gateway.LoginAttempt{Login: "alice", Password: "pw"})
		require.NoError(t, err)
	}
	require.Equal(t, 3, upstream.loginCalls)
}

func TestCachedResourcesFailsOpen(t *testing.T) {
	upstream, cached, mr := newCacheFixture(t)
	ctx := context.Background()

	mr.Close()

	for range 2 {
		key, err := cached.GetAPIKey(ctx, "key1")
		require.NoError(t, err)
		require.Equal(t, "key1", key.ID)
	}
	require.Equal(t, 2, upstream.keyCalls)
}
