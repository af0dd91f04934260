package repository

import (
	"context"
	"time"

	"sitestock-backend/internal/domains/movement/model"
)

// RepositoryInterface persists movement and stocktake audit rows. Movements
// are append-only; rollback flips a row's status to Voided rather than
// deleting it.
type RepositoryInterface interface {
	// CreateMovement appends one movement row and fills its record id.
	CreateMovement(ctx context.Context, mv *model.StockMovement) error

	// UpdateStatus changes the lifecycle status of a recorded movement.
	UpdateStatus(ctx context.Context, id string, status model.Status) error

	// ListByBatch returns all movements recorded under one batch id.
	ListByBatch(ctx context.Context, batchID string) ([]model.StockMovement, error)

	// ListSince returns movements recorded at or after the given time,
	// newest first.
	ListSince(ctx context.Context, since time.Time) ([]model.StockMovement, error)

	// CreateStocktake appends one counted-line audit row.
	CreateStocktake(ctx context.Context, st *model.InventoryStocktake) error
}
