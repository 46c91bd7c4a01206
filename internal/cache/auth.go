package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lexicognize/lexicognize/internal/model"
)

const (
	// authCachePrefix is the Redis key prefix for auth context cache.
	authCachePrefix = "auth:ctx:"
	// authKeyIndexPrefix maps an API key ID to the cache key of its
	// auth context, so revocation can evict without the plaintext key.
	authKeyIndexPrefix = "auth:ctx:key:"
	// authCacheTTL is the time-to-live for cached auth contexts.
	// Revocation evicts eagerly; the TTL only bounds staleness if the
	// eviction write is lost.
	authCacheTTL = 5 * time.Minute
)

// CachedAuthContext represents auth context stored in Redis.
type CachedAuthContext struct {
	KeyID         string   `json:"key_id"`
	KeyPrefix     string   `json:"key_prefix"`
	UserID        string   `json:"user_id"`
	Username      string   `json:"username"`
	Role          string   `json:"role"`
	Scopes        []string `json:"scopes"`
	RateLimitTier string   `json:"rate_limit_tier"`
}

// GetAuthContext retrieves a cached auth context by cache key.
// Returns nil if not found (cache miss).
func (c *Cache) GetAuthContext(ctx context.Context, cacheKey string) (*model.AuthContext, error) {
	key := authCachePrefix + cacheKey

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		// Cache miss is not an error
		return nil, nil //nolint:nilerr
	}

	var cached CachedAuthContext
	if err := json.Unmarshal(data, &cached); err != nil {
		// Corrupted cache entry - treat as miss
		return nil, nil //nolint:nilerr
	}

	return &model.AuthContext{
		KeyID:         cached.KeyID,
		KeyPrefix:     cached.KeyPrefix,
		UserID:        cached.UserID,
		Username:      cached.Username,
		Role:          cached.Role,
		Scopes:        cached.Scopes,
		Method:        model.AuthMethodAPIKey,
		RateLimitTier: cached.RateLimitTier,
	}, nil
}

// SetAuthContext caches an auth context.
func (c *Cache) SetAuthContext(ctx context.Context, cacheKey string, auth *model.AuthContext) error {
	key := authCachePrefix + cacheKey

	cached := CachedAuthContext{
		KeyID:         auth.KeyID,
		KeyPrefix:     auth.KeyPrefix,
		UserID:        auth.UserID,
		Username:      auth.Username,
		Role:          auth.Role,
		Scopes:        auth.Scopes,
		RateLimitTier: auth.RateLimitTier,
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("marshal auth context: %w", err)
	}

	if err := c.client.Set(ctx, key, data, authCacheTTL).Err(); err != nil {
		return err
	}
	if auth.KeyID != "" {
		return c.client.Set(ctx, authKeyIndexPrefix+auth.KeyID, cacheKey, authCacheTTL).Err()
	}
	return nil
}

// DeleteAuthContext removes a cached auth context.
// Used when a key is revoked.
func (c *Cache) DeleteAuthContext(ctx context.Context, cacheKey string) error {
	key := authCachePrefix + cacheKey
	return c.client.Del(ctx, key).Err()
}

// DeleteAuthContextByKeyID evicts the cached auth context for an API
// key through the key-ID index. Missing entries are not an error.
func (c *Cache) DeleteAuthContextByKeyID(ctx context.Context, keyID string) error {
	idx := authKeyIndexPrefix + keyID
	cacheKey, err := c.client.Get(ctx, idx).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	}
	return c.client.Del(ctx, authCachePrefix+cacheKey, idx).Err()
}
