package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	catalogmodel "sitestock-backend/internal/domains/catalog/model"
	"sitestock-backend/internal/domains/movement/model"
)

// postgresRepository is the pgx-backed movement store.
type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates the postgres movement repository.
func NewPostgresRepository(pool *pgxpool.Pool) RepositoryInterface {
	return &postgresRepository{pool: pool}
}

const movementColumns = `
	id, batch_id, item_name, type, quantity, unit, status,
	coalesce(requested_by, ''), created_at, reason,
	coalesce(category, ''), coalesce(driver_name, ''), coalesce(user_id, 0),
	coalesce(from_location, ''), coalesce(to_location, ''),
	coalesce(project, ''), coalesce(note, '')`

func (r *postgresRepository) CreateMovement(ctx context.Context, mv *model.StockMovement) error {
	query := `
		INSERT INTO movements (
			batch_id, item_name, type, quantity, unit, status, requested_by,
			source, created_at, reason, category, driver_name, user_id,
			from_location, to_location, project, note
		) VALUES ($1, $2, $3, $4, $5, $6, nullif($7, ''),
			$8, $9, $10, nullif($11, ''), nullif($12, ''), nullif($13, 0),
			nullif($14, ''), nullif($15, ''), nullif($16, ''), nullif($17, ''))
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		mv.BatchID, mv.ItemName, string(mv.Type), mv.Quantity, mv.Unit,
		string(mv.Status), mv.UserName, movementSource, mv.Timestamp, mv.Reason,
		mv.Category, mv.Driver, mv.UserID,
		mv.FromLocation, mv.ToLocation, mv.Project, mv.Note,
	).Scan(&mv.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", catalogmodel.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, id string, status model.Status) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE movements SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("%w: %v", catalogmodel.ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("movement %s: not found", id)
	}
	return nil
}

func (r *postgresRepository) ListByBatch(ctx context.Context, batchID string) ([]model.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements WHERE batch_id = $1 ORDER BY created_at`
	return r.list(ctx, query, batchID)
}

func (r *postgresRepository) ListSince(ctx context.Context, since time.Time) ([]model.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements WHERE created_at >= $1 ORDER BY created_at DESC`
	return r.list(ctx, query, since)
}

func (r *postgresRepository) list(ctx context.Context, query string, args ...interface{}) ([]model.StockMovement, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", catalogmodel.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []model.StockMovement
	for rows.Next() {
		mv, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, mv)
	}
	return out, rows.Err()
}

func (r *postgresRepository) CreateStocktake(ctx context.Context, st *model.InventoryStocktake) error {
	query := `
		INSERT INTO stocktakes (
			batch_id, date, item_name, counted_qty, previous_on_hand,
			new_on_hand, discrepancy, applied_at, applied_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		st.BatchID, st.Date, st.ItemName, st.CountedQty, st.PreviousOnHand,
		st.NewOnHand, st.Discrepancy, st.AppliedAt, st.AppliedBy,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", catalogmodel.ErrStoreUnavailable, err)
	}
	return nil
}

func scanMovement(row pgx.Row) (model.StockMovement, error) {
	var mv model.StockMovement
	var typ, status string
	err := row.Scan(
		&mv.ID, &mv.BatchID, &mv.ItemName, &typ, &mv.Quantity, &mv.Unit, &status,
		&mv.UserName, &mv.Timestamp, &mv.Reason,
		&mv.Category, &mv.Driver, &mv.UserID,
		&mv.FromLocation, &mv.ToLocation, &mv.Project, &mv.Note,
	)
	if err != nil {
		return mv, err
	}
	mv.Type = model.MovementType(typ)
	mv.Status = model.Status(status)
	mv.SignedBaseQuantity = model.Sign(mv.Type, mv.Quantity)
	return mv, nil
}
