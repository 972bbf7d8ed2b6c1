// Package cache provides a byte-oriented TTL cache with in-memory and Redis backends.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

var (
	ErrCacheMiss   = errors.New("cache miss")
	ErrCacheClosed = errors.New("cache closed")
)

// Cache stores opaque values with an expiry. Implementations are safe for concurrent use.
type Cache interface {
	// Get returns ErrCacheMiss when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value for ttl; a zero ttl uses the cache default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// New returns a Redis cache when redisURL is set, otherwise an in-memory cache.
// A Redis connection failure falls back to memory so the API keeps serving.
func New(redisURL, prefix string, defaultTTL time.Duration, logger *slog.Logger) Cache {
	if redisURL != "" {
		rc, err := NewRedisCache(redisURL, prefix, defaultTTL)
		if err == nil {
			logger.Info("using redis cache", "prefix", prefix)
			return rc
		}
		logger.Warn("redis unavailable, falling back to memory cache", "err", err)
	}
	return NewMemoryCache(defaultTTL)
}
