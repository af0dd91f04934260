package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"sitestock-backend/internal/domains/catalog/model"
)

// postgresRepository is the pgx-backed catalogue implementation for sites that
// run their own database instead of the cloud sheet.
type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates the postgres catalogue repository.
func NewPostgresRepository(pool *pgxpool.Pool) RepositoryInterface {
	return &postgresRepository{pool: pool}
}

const itemColumns = `
	id, name, on_hand, unit_size, unit_type, category,
	coalesce(location, ''), coalesce(project, ''),
	coalesce(reorder_threshold, 0), coalesce(large_qty_threshold, 0),
	is_active, last_stocktake_date, coalesce(last_stocktake_by, '')`

func (r *postgresRepository) ListItems(ctx context.Context) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE is_active ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *postgresRepository) GetByName(ctx context.Context, name string) (*model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE lower(name) = lower($1)`

	item, err := scanItem(r.pool.QueryRow(ctx, query, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.NewItemNotFoundError(name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}
	return &item, nil
}

func (r *postgresRepository) Create(ctx context.Context, item *model.Item) error {
	query := `
		INSERT INTO items (
			name, on_hand, unit_size, unit_type, category, location, project,
			reorder_threshold, large_qty_threshold, is_active
		) VALUES ($1, $2, $3, $4, $5, nullif($6, ''), nullif($7, ''),
			nullif($8, 0), nullif($9, 0), $10)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		item.Name, item.OnHand, item.UnitSize, item.UnitType, item.Category,
		item.Location, item.Project,
		item.ReorderThreshold, item.LargeQtyThreshold, item.IsActive,
	).Scan(&item.ID)

	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 = unique_violation on the lower(name) index
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.ErrItemAlreadyExists
		}
		return fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *postgresRepository) Update(ctx context.Context, item *model.Item) error {
	query := `
		UPDATE items SET
			on_hand = $2, unit_size = $3, unit_type = $4, category = $5,
			location = nullif($6, ''), project = nullif($7, ''),
			reorder_threshold = nullif($8, 0), large_qty_threshold = nullif($9, 0),
			is_active = $10, last_stocktake_date = $11,
			last_stocktake_by = nullif($12, ''), updated_at = now()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		item.ID, item.OnHand, item.UnitSize, item.UnitType, item.Category,
		item.Location, item.Project,
		item.ReorderThreshold, item.LargeQtyThreshold, item.IsActive,
		item.LastStocktakeDate, item.LastStocktakeBy,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewItemNotFoundError(item.Name)
	}
	return nil
}

func scanItem(row pgx.Row) (model.Item, error) {
	var item model.Item
	err := row.Scan(
		&item.ID, &item.Name, &item.OnHand, &item.UnitSize, &item.UnitType,
		&item.Category, &item.Location, &item.Project,
		&item.ReorderThreshold, &item.LargeQtyThreshold,
		&item.IsActive, &item.LastStocktakeDate, &item.LastStocktakeBy,
	)
	return item, err
}
