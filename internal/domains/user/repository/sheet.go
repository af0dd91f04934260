package repository

import (
	"context"
	"fmt"
	"strconv"

	catalogmodel "sitestock-backend/internal/domains/catalog/model"
	"sitestock-backend/internal/domains/user/model"
	"sitestock-backend/internal/infrastructure/sheetdb"
)

const usersTable = "Telegram Users"

// sheetRepository reads the user roster from the cloud sheet.
type sheetRepository struct {
	client *sheetdb.Client
}

// NewSheetRepository creates the sheet-backed user repository.
func NewSheetRepository(client *sheetdb.Client) RepositoryInterface {
	return &sheetRepository{client: client}
}

func (r *sheetRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	users, err := r.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].TelegramID == telegramID {
			return &users[i], nil
		}
	}
	return nil, fmt.Errorf("%w: telegram id %d", model.ErrUserNotFound, telegramID)
}

func (r *sheetRepository) Create(ctx context.Context, user *model.User) error {
	fields := map[string]interface{}{
		"Telegram ID": strconv.FormatInt(user.TelegramID, 10),
		"Name":        user.Name,
		"Role":        string(user.Role),
		"Active":      user.IsActive,
	}
	rec, err := r.client.Create(ctx, usersTable, fields)
	if err != nil {
		return fmt.Errorf("%w: %v", catalogmodel.ErrStoreUnavailable, err)
	}
	user.ID = rec.ID
	return nil
}

func (r *sheetRepository) ListActive(ctx context.Context) ([]model.User, error) {
	records, err := r.client.ListAll(ctx, usersTable)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", catalogmodel.ErrStoreUnavailable, err)
	}

	var users []model.User
	for _, rec := range records {
		u := userFromRecord(rec)
		if u.IsActive {
			users = append(users, u)
		}
	}
	return users, nil
}

func userFromRecord(rec sheetdb.Record) model.User {
	u := model.User{
		ID:   rec.ID,
		Name: stringField(rec.Fields, "Name"),
		Role: model.Role(stringField(rec.Fields, "Role")),
	}
	if raw := stringField(rec.Fields, "Telegram ID"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			u.TelegramID = id
		}
	} else if v, ok := rec.Fields["Telegram ID"].(float64); ok {
		u.TelegramID = int64(v)
	}
	if u.Role != model.RoleAdmin {
		u.Role = model.RoleStaff
	}
	if active, ok := rec.Fields["Active"].(bool); ok {
		u.IsActive = active
	} else {
		u.IsActive = true
	}
	return u
}

func stringField(fields map[string]interface{}, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}
