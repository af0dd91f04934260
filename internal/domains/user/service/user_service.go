package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"sitestock-backend/internal/domains/user/model"
	"sitestock-backend/internal/domains/user/repository"
	"sitestock-backend/pkg/cache"
)

const (
	userCachePrefix = "user:tg:"
	userCacheTTL    = 10 * time.Minute
)

// ServiceInterface resolves Telegram accounts to registered users.
type ServiceInterface interface {
	// Resolve returns the registered user for a Telegram account. Unknown
	// accounts are auto-registered as staff.
	Resolve(ctx context.Context, telegramID int64, name string) (*model.User, error)

	// IsAllowedChat checks the chat against the configured allow-list.
	// An empty list allows every chat.
	IsAllowedChat(chatID int64) bool
}

// UserService is the cache-aside user lookup on top of the roster store.
type UserService struct {
	repo           repository.RepositoryInterface
	cache          cache.Cache
	allowedChatIDs map[int64]bool
}

// NewService creates a new user service.
func NewService(repo repository.RepositoryInterface, c cache.Cache, allowedChatIDs []int64) ServiceInterface {
	allowed := make(map[int64]bool, len(allowedChatIDs))
	for _, id := range allowedChatIDs {
		allowed[id] = true
	}
	return &UserService{repo: repo, cache: c, allowedChatIDs: allowed}
}

// Resolve implements ServiceInterface.Resolve
func (s *UserService) Resolve(ctx context.Context, telegramID int64, name string) (*model.User, error) {
	key := fmt.Sprintf("%s%d", userCachePrefix, telegramID)

	var cached model.User
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	user, err := s.repo.GetByTelegramID(ctx, telegramID)
	if err == nil {
		s.cacheUser(ctx, key, user)
		return user, nil
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return nil, err
	}

	// First contact: register as staff so movements carry a real name.
	user = &model.User{
		TelegramID: telegramID,
		Name:       name,
		Role:       model.RoleStaff,
		IsActive:   true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	log.Info().Int64("telegram_id", telegramID).Str("name", name).
		Msg("registered new staff user")

	s.cacheUser(ctx, key, user)
	return user, nil
}

// IsAllowedChat implements ServiceInterface.IsAllowedChat
func (s *UserService) IsAllowedChat(chatID int64) bool {
	if len(s.allowedChatIDs) == 0 {
		return true
	}
	return s.allowedChatIDs[chatID]
}

func (s *UserService) cacheUser(ctx context.Context, key string, user *model.User) {
	if err := s.cache.Set(ctx, key, user, userCacheTTL); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("user cache write failed")
	}
}

