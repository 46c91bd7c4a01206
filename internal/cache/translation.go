package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Cache key prefixes and TTLs for translation results.
const (
	translationKeyPrefix = "translation:"

	// DefaultTranslationTTL is the TTL for cached translation results.
	// Model output for identical input is deterministic with beam search,
	// so a long TTL is safe.
	DefaultTranslationTTL = 24 * time.Hour
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

// TranslationCacheKey builds the cache key for a translation request.
// contentHash must already be a digest of the input text.
func TranslationCacheKey(sourceLang, targetLang, contentHash string) string {
	return fmt.Sprintf("%s%s:%s:%s", translationKeyPrefix, sourceLang, targetLang, contentHash)
}

// GetTranslation retrieves a cached translation.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetTranslation(ctx context.Context, key string) (string, error) {
	result, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return "", ErrCacheMiss
	}
	return result, nil
}

// SetTranslation stores a translation result.
func (c *Cache) SetTranslation(ctx context.Context, key, translated string) error {
	return c.client.Set(ctx, key, translated, DefaultTranslationTTL).Err()
}
