// Package cache provides a shared key-value cache with a Redis backend and
// a transparent in-memory fallback. Cache failures never propagate to
// callers: a broken backend degrades every read to a miss and every write
// to a no-op.
package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Cache is a TTL key-value store. Implementations must be safe for
// concurrent use and must not return errors; infrastructure failures are
// logged and reported as misses.
type Cache interface {
	// Get returns the cached value and true on a hit.
	Get(ctx context.Context, key string) (string, bool)

	// Set stores value under key for ttl. A non-positive ttl stores
	// without expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration)

	// Delete removes key if present.
	Delete(ctx context.Context, key string)

	// Clear removes every entry from the cache.
	Clear(ctx context.Context)
}

// New returns a Redis-backed cache when redisURL is set and reachable,
// otherwise an in-memory cache.
func New(ctx context.Context, redisURL string) Cache {
	if redisURL == "" {
		return NewMemory()
	}
	c, err := NewRedis(ctx, redisURL)
	if err != nil {
		zap.L().Warn("cache: redis unavailable, using in-memory fallback", zap.Error(err))
		return NewMemory()
	}
	return c
}
