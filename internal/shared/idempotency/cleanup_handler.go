package idempotency

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

// CleanupHandler sweeps expired submission keys. Redis expires keys on its
// own; this keeps the memory-cache deployments from leaking.
type CleanupHandler struct {
	store *Store
}

func NewCleanupHandler(store *Store) *CleanupHandler {
	return &CleanupHandler{store: store}
}

func (h *CleanupHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	removed, err := h.store.CleanupExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Idempotency cleanup failed")
		return err
	}

	log.Info().
		Int("removed", removed).
		Msg("Idempotency keys cleaned up")
	return nil
}
