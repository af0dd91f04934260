package repository

import (
	"context"

	"sitestock-backend/internal/domains/catalog/model"
)

// RepositoryInterface is the catalogue data-access contract.
// The store owns Items; the service layer only holds short-lived snapshots.
type RepositoryInterface interface {
	// ListItems returns every active catalogue item.
	ListItems(ctx context.Context) ([]model.Item, error)

	// GetByName does a case-insensitive exact lookup.
	// Returns model.ErrItemNotFound when absent.
	GetByName(ctx context.Context, name string) (*model.Item, error)

	// Create inserts a new item and fills in its store-assigned ID.
	// Returns model.ErrItemAlreadyExists on a name collision.
	Create(ctx context.Context, item *model.Item) error

	// Update writes the mutable fields of an existing item by ID.
	Update(ctx context.Context, item *model.Item) error
}
