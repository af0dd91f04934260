package job

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"sitestock-backend/internal/domains/catalog/service"
)

// RefreshSnapshotHandler rebuilds the worker's catalogue snapshot ahead of
// report jobs so they read fresh stock levels.
type RefreshSnapshotHandler struct {
	snapshot *service.SnapshotCache
}

func NewRefreshSnapshotHandler(snapshot *service.SnapshotCache) *RefreshSnapshotHandler {
	return &RefreshSnapshotHandler{snapshot: snapshot}
}

func (h *RefreshSnapshotHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	items, err := h.snapshot.Refresh(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Catalogue snapshot refresh failed")
		return err
	}

	log.Info().
		Int("items", len(items)).
		Msg("Catalogue snapshot refreshed")
	return nil
}
