package cache

import (
	"context"
	"time"
)

// Cache is the contract for the cache layer.
// Implementations: Redis (production), in-memory (tests, degraded mode).
type Cache interface {
	// Get reads a key and unmarshals it into dest.
	// Returns (found, error); on a miss dest is left untouched.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set stores a value under key with a TTL. ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes keys from the cache.
	Delete(ctx context.Context, keys ...string) error

	// Exists reports whether a key is present and not expired.
	Exists(ctx context.Context, key string) (bool, error)

	// TTL returns the remaining lifetime of a key.
	TTL(ctx context.Context, key string) (time.Duration, error)

	// Ping verifies the connection.
	Ping(ctx context.Context) error
}
