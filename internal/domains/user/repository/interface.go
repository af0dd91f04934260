package repository

import (
	"context"

	"sitestock-backend/internal/domains/user/model"
)

// RepositoryInterface reads and writes registered Telegram users.
type RepositoryInterface interface {
	// GetByTelegramID looks up a user by Telegram account id.
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)

	// Create registers a new user and fills its record id.
	Create(ctx context.Context, user *model.User) error

	// ListActive returns all active users.
	ListActive(ctx context.Context) ([]model.User, error)
}
