package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/idp/domain"
	"github.com/aussiebroadwan/gatehouse/pkg/cryptox"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultCacheTTL = 5 * time.Minute

	cacheKeyPrefix = "gatehouse:gw:"
)

// CachedResources wraps a Resources implementation with a redis
// read-through cache for API keys and accounts. Login verification is
// never cached. Redis failures fall through to the upstream, so a
// degraded cache slows the service down rather than breaking it.
type CachedResources struct {
	next Resources
	rdb  redis.UniversalClient
	ttl  time.Duration
}

func NewCachedResources(next Resources, rdb redis.UniversalClient, ttl time.Duration) *CachedResources {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedResources{next: next, rdb: rdb, ttl: ttl}
}

func (c *CachedResources) GetAPIKey(ctx context.Context, id string) (domain.APIKey, error) {
	var key domain.APIKey
	if c.lookup(ctx, "apikey:"+id, &key) {
		return key, nil
	}

	key, err := c.next.GetAPIKey(ctx, id)
	if err != nil {
		return domain.APIKey{}, err
	}

	c.put(ctx, "apikey:"+id, key)
	return key, nil
}

func (c *CachedResources) GetAccount(ctx context.Context, href string) (domain.Account, error) {
	key := accountCacheKey(href)

	var account domain.Account
	if c.lookup(ctx, key, &account) {
		return account, nil
	}

	account, err := c.next.GetAccount(ctx, href)
	if err != nil {
		return domain.Account{}, err
	}

	c.put(ctx, key, account)
	return account, nil
}

// accountCacheKey fingerprints the href so account URLs of any length
// map to fixed-size redis keys.
func accountCacheKey(href string) string {
	return "account:" + cryptox.FingerprintToken(href)
}

func (c *CachedResources) VerifyLogin(ctx context.Context, attempt LoginAttempt) (domain.Account, error) {
	return c.next.VerifyLogin(ctx, attempt)
}

// InvalidateAccount drops a cached account, forcing the next read to hit
// the upstream. Used after assertions report account changes.
func (c *CachedResources) InvalidateAccount(ctx context.Context, href string) {
	if err := c.rdb.Del(ctx, cacheKeyPrefix+accountCacheKey(href)).Err(); err != nil {
		slogx.FromContext(ctx).Warn("gateway cache invalidate failed", "error", err)
	}
}

func (c *CachedResources) lookup(ctx context.Context, key string, dst any) bool {
	raw, err := c.rdb.Get(ctx, cacheKeyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			slogx.FromContext(ctx).Warn("gateway cache read failed", "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false
	}
	return true
}

func (c *CachedResources) put(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKeyPrefix+key, raw, c.ttl).Err(); err != nil {
		slogx.FromContext(ctx).Warn("gateway cache write failed", "error", err)
	}
}
