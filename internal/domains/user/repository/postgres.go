package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	catalogmodel "sitestock-backend/internal/domains/catalog/model"
	"sitestock-backend/internal/domains/user/model"
)

// postgresRepository is the pgx-backed user roster.
type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates the postgres user repository.
func NewPostgresRepository(pool *pgxpool.Pool) RepositoryInterface {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	query := `SELECT id, telegram_id, name, role, is_active FROM users WHERE telegram_id = $1`

	var u model.User
	var role string
	err := r.pool.QueryRow(ctx, query, telegramID).Scan(
		&u.ID, &u.TelegramID, &u.Name, &role, &u.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: telegram id %d", model.ErrUserNotFound, telegramID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", catalogmodel.ErrStoreUnavailable, err)
	}
	u.Role = model.Role(role)
	return &u, nil
}

func (r *postgresRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (telegram_id, name, role, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.pool.QueryRow(ctx, query,
		user.TelegramID, user.Name, string(user.Role), user.IsActive).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", catalogmodel.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *postgresRepository) ListActive(ctx context.Context) ([]model.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, telegram_id, name, role, is_active FROM users WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", catalogmodel.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		var role string
		if err := rows.Scan(&u.ID, &u.TelegramID, &u.Name, &role, &u.IsActive); err != nil {
			return nil, err
		}
		u.Role = model.Role(role)
		users = append(users, u)
	}
	return users, rows.Err()
}
