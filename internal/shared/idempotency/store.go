package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"sitestock-backend/pkg/cache"
)

const keyPrefix = "idem:"

// entry is what gets cached per submitted command. The TTL is kept in
// nanoseconds so sub-second windows survive the round trip.
type entry struct {
	CreatedAt time.Time     `json:"created_at"`
	TTL       time.Duration `json:"ttl_ns"`
}

// Store suppresses duplicate command submissions within a TTL window.
// Keys are content hashes of the normalized command text, so resubmitting
// the same text from the same fat-fingered double tap is caught regardless
// of message ids.
type Store struct {
	cache cache.Cache
}

// NewStore creates an idempotency store on top of the shared cache layer.
func NewStore(c cache.Cache) *Store {
	return &Store{cache: c}
}

// GenerateKey hashes the normalized command text.
// Case and surrounding whitespace do not change the key.
func GenerateKey(text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// IsDuplicate reports whether the text was stored less than its TTL ago.
// Expired entries are evicted on check.
func (s *Store) IsDuplicate(ctx context.Context, text string) (bool, error) {
	key := keyPrefix + GenerateKey(text)

	var e entry
	found, err := s.cache.Get(ctx, key, &e)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	age := time.Since(e.CreatedAt)
	if age >= e.TTL {
		_ = s.cache.Delete(ctx, key)
		return false, nil
	}
	return true, nil
}

// StoreKey records the text for ttl. A non-positive ttl returns the key
// without storing anything, which disables dedupe for that command.
func (s *Store) StoreKey(ctx context.Context, text string, ttl time.Duration) (string, error) {
	key := GenerateKey(text)
	if ttl <= 0 {
		return key, nil
	}

	e := entry{CreatedAt: time.Now(), TTL: ttl}
	if err := s.cache.Set(ctx, keyPrefix+key, e, ttl); err != nil {
		return key, err
	}
	return key, nil
}

// RemoveKey drops the entry for a text, re-enabling immediate resubmission.
func (s *Store) RemoveKey(ctx context.Context, text string) error {
	return s.cache.Delete(ctx, keyPrefix+GenerateKey(text))
}

// CleanupExpired sweeps expired entries where the backing cache does not
// expire keys on its own. Redis handles TTLs natively, so this returns 0
// there; the in-memory cache reports how many entries it dropped.
func (s *Store) CleanupExpired(ctx context.Context) (int, error) {
	type sweeper interface {
		CleanupExpired(ctx context.Context) (int, error)
	}
	if sw, ok := s.cache.(sweeper); ok {
		return sw.CleanupExpired(ctx)
	}
	return 0, nil
}
