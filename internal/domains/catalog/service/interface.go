package service

import (
	"context"

	"sitestock-backend/internal/domains/catalog/model"
)

// SearchResult is one ranked hit from a fuzzy stock query.
type SearchResult struct {
	Item  model.Item
	Score float64
}

// ServiceInterface is the catalogue business logic contract.
type ServiceInterface interface {
	// Snapshot returns the cached catalogue used by duplicate scans.
	Snapshot(ctx context.Context) ([]model.Item, error)

	// InvalidateSnapshot drops the cache after catalogue writes.
	InvalidateSnapshot()

	// GetByName does a case-insensitive exact lookup against the live store.
	GetByName(ctx context.Context, name string) (*model.Item, error)

	// GetOrCreate fetches an item, creating it from its name on first mention.
	// Reports whether a new item was created.
	GetOrCreate(ctx context.Context, name string) (*model.Item, bool, error)

	// Save persists item mutations back to the store.
	Save(ctx context.Context, item *model.Item) error

	// Search ranks catalogue items against a free-text query.
	Search(ctx context.Context, query string) ([]SearchResult, error)
}
