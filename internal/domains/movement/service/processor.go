package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	catalogmodel "sitestock-backend/internal/domains/catalog/model"
	"sitestock-backend/internal/domains/movement/model"
	"sitestock-backend/internal/shared/apperrors"
)

// BatchProcessor applies a staged batch movement by movement, in input
// order, and rolls the batch back when a CRITICAL failure follows at least
// one success.
type BatchProcessor struct {
	executor *Executor

	// largeQtyLimit is the fallback warning threshold for items that carry
	// no LargeQtyThreshold of their own.
	largeQtyLimit float64
}

// NewBatchProcessor creates the batch processor.
func NewBatchProcessor(executor *Executor, largeQtyLimit float64) *BatchProcessor {
	return &BatchProcessor{executor: executor, largeQtyLimit: largeQtyLimit}
}

// Process applies the movements of one approved batch and reports the
// outcome. Movements are mutated in place: ids, status and category are
// filled as they post.
func (p *BatchProcessor) Process(ctx context.Context, batchID string, movements []model.StockMovement, by Submitter) *model.BatchResult {
	start := time.Now()

	result := &model.BatchResult{
		BatchID:      batchID,
		Total:        len(movements),
		BeforeLevels: p.levels(ctx, movements),
	}

	critical := false
	for i := range movements {
		mv := &movements[i]
		mv.BatchID = batchID

		item, execErr := p.executor.Execute(ctx, mv, by)
		if execErr != nil {
			result.Failed = append(result.Failed, execErr.WithEntry(i, mv.ItemName))
			if execErr.Severity == apperrors.SeverityCritical {
				critical = true
			}
			continue
		}

		result.Successful = append(result.Successful, *mv)
		if item.NeedsReorder() {
			result.LowStock = append(result.LowStock, item.Name)
		}
		if limit := p.largeQtyFor(item); limit > 0 && math.Abs(mv.Quantity) > limit {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"%s: quantity %.4g is over the large-quantity threshold %.4g, please double-check",
				item.Name, mv.Quantity, limit))
		}
	}

	if critical && len(result.Successful) > 0 {
		p.rollback(ctx, result)
	}

	result.AfterLevels = p.levels(ctx, movements)
	result.Duration = time.Since(start)
	result.Summary = p.summarize(result)

	log.Info().Str("batch_id", batchID).
		Int("total", result.Total).
		Int("successful", len(result.Successful)).
		Int("failed", len(result.Failed)).
		Bool("rolled_back", result.RolledBack).
		Dur("duration", result.Duration).
		Msg("batch processed")

	return result
}

// largeQtyFor prefers the item's own threshold over the configured default.
func (p *BatchProcessor) largeQtyFor(item *catalogmodel.Item) float64 {
	if item.LargeQtyThreshold > 0 {
		return item.LargeQtyThreshold
	}
	return p.largeQtyLimit
}

// rollback compensates every posted movement of a critically failed batch.
func (p *BatchProcessor) rollback(ctx context.Context, result *model.BatchResult) {
	result.RolledBack = true

	for i := range result.Successful {
		mv := &result.Successful[i]
		if err := p.executor.Compensate(ctx, mv); err != nil {
			result.RollbackFailed = true
			result.Failed = append(result.Failed, apperrors.Wrap(
				apperrors.CategoryRollback, apperrors.SeverityCritical, err))
			log.Error().Err(err).Str("batch_id", result.BatchID).Str("item", mv.ItemName).
				Msg("rollback compensation failed, manual intervention needed")
		}
	}
}

// levels snapshots on-hand per distinct item. Items the store does not know
// yet read as zero.
func (p *BatchProcessor) levels(ctx context.Context, movements []model.StockMovement) map[string]float64 {
	out := make(map[string]float64)
	for i := range movements {
		name := movements[i].ItemName
		if _, done := out[name]; done {
			continue
		}
		item, err := p.executor.catalog.GetByName(ctx, name)
		if err != nil {
			if !catalogmodel.IsNotFoundError(err) {
				log.Warn().Err(err).Str("item", name).Msg("level snapshot lookup failed")
			}
			out[name] = 0
			continue
		}
		out[name] = item.OnHand
	}
	return out
}

func (p *BatchProcessor) summarize(r *model.BatchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d/%d movements posted (%.0f%%)",
		len(r.Successful), r.Total, r.SuccessRate())
	if r.RolledBack {
		if r.RollbackFailed {
			b.WriteString(", rollback incomplete, check stock levels manually")
		} else {
			b.WriteString(", batch rolled back after a critical failure")
		}
	}
	if len(r.LowStock) > 0 {
		fmt.Fprintf(&b, ", low stock: %s", strings.Join(r.LowStock, ", "))
	}
	return b.String()
}
