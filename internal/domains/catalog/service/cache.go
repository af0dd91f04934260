package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"sitestock-backend/internal/domains/catalog/model"
	"sitestock-backend/internal/domains/catalog/repository"
)

// SnapshotCache holds one short-lived copy of the whole catalogue for
// duplicate scans and stock search. Single writer (the refill), many readers.
// If the store is down and a stale snapshot exists, the stale copy is served.
type SnapshotCache struct {
	repo repository.RepositoryInterface
	ttl  time.Duration

	mu        sync.RWMutex
	items     []model.Item
	fetchedAt time.Time
}

// NewSnapshotCache creates a snapshot cache with the given TTL.
func NewSnapshotCache(repo repository.RepositoryInterface, ttl time.Duration) *SnapshotCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SnapshotCache{repo: repo, ttl: ttl}
}

// Items returns the current snapshot, refetching when expired.
func (c *SnapshotCache) Items(ctx context.Context) ([]model.Item, error) {
	c.mu.RLock()
	fresh := time.Since(c.fetchedAt) < c.ttl && c.items != nil
	items := c.items
	c.mu.RUnlock()

	if fresh {
		return items, nil
	}
	return c.Refresh(ctx)
}

// Refresh refetches the catalogue unconditionally.
func (c *SnapshotCache) Refresh(ctx context.Context) ([]model.Item, error) {
	fetched, err := c.repo.ListItems(ctx)
	if err != nil {
		c.mu.RLock()
		stale := c.items
		c.mu.RUnlock()

		if stale != nil {
			log.Warn().Err(err).
				Time("fetched_at", c.fetchedAt).
				Msg("catalogue fetch failed, serving stale snapshot")
			return stale, nil
		}
		return nil, err
	}

	c.mu.Lock()
	c.items = fetched
	c.fetchedAt = time.Now()
	c.mu.Unlock()
	return fetched, nil
}

// Invalidate drops the snapshot so the next read refetches.
func (c *SnapshotCache) Invalidate() {
	c.mu.Lock()
	c.items = nil
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}
