package approval

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"sitestock-backend/internal/domains/duplicate"
	"sitestock-backend/internal/domains/movement/model"
	"sitestock-backend/internal/domains/movement/repository"
	"sitestock-backend/internal/domains/movement/service"
	"sitestock-backend/internal/shared/apperrors"
)

// Controller holds the pending-approval map and the per-chat duplicate
// dialogues. All mutations go through one lock; approval execution itself
// runs outside it so slow store writes never block staging.
type Controller struct {
	processor *service.BatchProcessor
	executor  *service.Executor
	movements repository.RepositoryInterface

	mu         sync.RWMutex
	pending    map[string]*BatchApproval
	duplicates map[int64]*PendingDuplicates
}

// NewController creates the approval controller.
func NewController(processor *service.BatchProcessor, executor *service.Executor, movements repository.RepositoryInterface) *Controller {
	return &Controller{
		processor:  processor,
		executor:   executor,
		movements:  movements,
		pending:    make(map[string]*BatchApproval),
		duplicates: make(map[int64]*PendingDuplicates),
	}
}

// Stage parks a parsed batch for admin approval and returns its batch id.
func (c *Controller) Stage(movements []model.StockMovement, by service.Submitter, chatID int64, beforeLevels map[string]float64) string {
	batch := &BatchApproval{
		BatchID:      uuid.NewString(),
		ChatID:       chatID,
		Movements:    movements,
		Submitter:    by,
		BeforeLevels: beforeLevels,
		Status:       StatusPending,
		CreatedAt:    time.Now(),
	}

	c.mu.Lock()
	c.pending[batch.BatchID] = batch
	c.mu.Unlock()

	log.Info().Str("batch_id", batch.BatchID).Int64("chat_id", chatID).
		Int("entries", len(movements)).Str("submitter", by.Name).
		Msg("batch staged for approval")
	return batch.BatchID
}

// Get returns the pending batch snapshot.
func (c *Controller) Get(batchID string) (*BatchApproval, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	batch, ok := c.pending[batchID]
	return batch, ok
}

// Pending lists staged batches, oldest first.
func (c *Controller) Pending() []*BatchApproval {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*BatchApproval, 0, len(c.pending))
	for _, b := range c.pending {
		out = append(out, b)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].CreatedAt.Before(out[j-1].CreatedAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// Approve executes a pending batch. Admin only. On a critical failure with
// nothing posted the batch stays pending so it can be retried.
func (c *Controller) Approve(ctx context.Context, batchID string, by service.Submitter) (*model.BatchResult, error) {
	if !by.IsAdmin {
		return nil, ErrNotAdmin
	}

	c.mu.Lock()
	batch, ok := c.pending[batchID]
	if !ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, batchID)
	}
	// Claim the batch before executing so a concurrent approval of the same
	// id cannot apply it a second time. It is re-staged only when nothing
	// posted at all.
	delete(c.pending, batchID)
	c.mu.Unlock()

	result := c.processor.Process(ctx, batchID, batch.Movements, batch.Submitter)
	result.BeforeLevels = batch.BeforeLevels

	if len(result.Successful) == 0 && hasCriticalFailure(result) {
		// Nothing posted and the store misbehaved: put the batch back for retry.
		c.mu.Lock()
		c.pending[batchID] = batch
		c.mu.Unlock()
		log.Warn().Str("batch_id", batchID).Msg("approval failed before any post, batch retained")
	} else {
		batch.Status = StatusApproved
	}

	log.Info().Str("batch_id", batchID).Str("approver", by.Name).
		Int("successful", len(result.Successful)).Msg("batch approved")
	return result, nil
}

// Reject discards a pending batch without touching the catalogue. Admin only.
func (c *Controller) Reject(batchID string, by service.Submitter) (*BatchApproval, error) {
	if !by.IsAdmin {
		return nil, ErrNotAdmin
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	batch, ok := c.pending[batchID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, batchID)
	}
	batch.Status = StatusRejected
	delete(c.pending, batchID)

	log.Info().Str("batch_id", batchID).Str("approver", by.Name).Msg("batch rejected")
	return batch, nil
}

// Void compensates one already posted movement. Admin only.
func (c *Controller) Void(ctx context.Context, batchID, movementID string, by service.Submitter) error {
	if !by.IsAdmin {
		return ErrNotAdmin
	}

	rows, err := c.movements.ListByBatch(ctx, batchID)
	if err != nil {
		return err
	}
	for i := range rows {
		if rows[i].ID == movementID {
			if rows[i].Status != model.StatusPosted {
				return fmt.Errorf("movement %s is %s, only posted movements can be voided",
					movementID, rows[i].Status)
			}
			return c.executor.Compensate(ctx, &rows[i])
		}
	}
	return fmt.Errorf("%w: %s", ErrMovementNotFound, movementID)
}

// SweepExpired evicts pending batches and duplicate dialogues older than
// maxAge. Returns how many entries were dropped.
func (c *Controller) SweepExpired(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := 0
	for id, b := range c.pending {
		if b.CreatedAt.Before(cutoff) {
			b.Status = StatusExpired
			delete(c.pending, id)
			dropped++
			log.Warn().Str("batch_id", id).Time("created_at", b.CreatedAt).
				Msg("pending batch expired")
		}
	}
	for chatID, d := range c.duplicates {
		if d.CreatedAt.Before(cutoff) {
			delete(c.duplicates, chatID)
			dropped++
		}
	}
	return dropped
}

// StageDuplicates opens a duplicate-confirmation dialogue for a chat,
// replacing any previous one.
func (c *Controller) StageDuplicates(chatID int64, batchType model.MovementType, matches []duplicate.Match, by service.Submitter) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.duplicates[chatID] = &PendingDuplicates{
		ChatID:       chatID,
		Duplicates:   matches,
		MovementType: batchType,
		User:         by,
		CreatedAt:    time.Now(),
		Confirmed:    make(map[int]DuplicateAction),
		Cancelled:    make(map[int]bool),
	}
}

// GetDuplicates returns the open dialogue for a chat.
func (c *Controller) GetDuplicates(chatID int64) (*PendingDuplicates, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.duplicates[chatID]
	return d, ok
}

// ResolveDuplicate applies one user decision. When the last duplicate is
// decided the dialogue is removed and the decided movements are returned
// with done=true.
func (c *Controller) ResolveDuplicate(chatID int64, index int, action DuplicateAction) (bool, []model.StockMovement, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, ok := c.duplicates[chatID]
	if !ok {
		return false, nil, ErrNoPendingDuplicates
	}
	if index < 0 || index >= len(d.Duplicates) {
		return false, nil, fmt.Errorf("%w: %d", ErrDuplicateIndex, index)
	}

	switch action {
	case ActionConfirm, ActionCreateNew:
		delete(d.Cancelled, index)
		d.Confirmed[index] = action
	case ActionCancel:
		delete(d.Confirmed, index)
		d.Cancelled[index] = true
	default:
		return false, nil, fmt.Errorf("unknown duplicate action %q", action)
	}

	if !d.Resolved() {
		return false, nil, nil
	}
	delete(c.duplicates, chatID)
	return true, d.Movements(), nil
}

// ResolveAllDuplicates short-circuits the dialogue with one bulk decision.
func (c *Controller) ResolveAllDuplicates(chatID int64, action DuplicateAction) ([]model.StockMovement, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, ok := c.duplicates[chatID]
	if !ok {
		return nil, ErrNoPendingDuplicates
	}

	for i := range d.Duplicates {
		if _, decided := d.Confirmed[i]; decided || d.Cancelled[i] {
			continue
		}
		switch action {
		case ActionConfirm, ActionCreateNew:
			d.Confirmed[i] = action
		case ActionCancel:
			d.Cancelled[i] = true
		default:
			return nil, fmt.Errorf("unknown duplicate action %q", action)
		}
	}

	delete(c.duplicates, chatID)
	return d.Movements(), nil
}

func hasCriticalFailure(r *model.BatchResult) bool {
	for _, f := range r.Failed {
		if f.Severity == apperrors.SeverityCritical {
			return true
		}
	}
	return false
}
