package bot

import (
	"context"
	"errors"
	"fmt"

	"sitestock-backend/internal/domains/approval"
	movementservice "sitestock-backend/internal/domains/movement/service"
	"sitestock-backend/internal/infrastructure/telegram"
)

// handleApprove executes a pending batch by id.
func (b *Bot) handleApprove(ctx context.Context, chatID int64, batchID string, by movementservice.Submitter) {
	if batchID == "" {
		b.reply(ctx, chatID, telegram.Reply{Text: "Usage: approve <batch_id>"})
		return
	}

	result, err := b.approvals.Approve(ctx, batchID, by)
	if err != nil {
		b.reply(ctx, chatID, approvalErrorReply(err, batchID))
		return
	}
	b.reply(ctx, chatID, resultReply(result))
}

// handleReject discards a pending batch by id.
func (b *Bot) handleReject(ctx context.Context, chatID int64, batchID string, by movementservice.Submitter) {
	if batchID == "" {
		b.reply(ctx, chatID, telegram.Reply{Text: "Usage: reject <batch_id>"})
		return
	}

	batch, err := b.approvals.Reject(batchID, by)
	if err != nil {
		b.reply(ctx, chatID, approvalErrorReply(err, batchID))
		return
	}
	b.reply(ctx, chatID, telegram.Reply{Text: fmt.Sprintf(
		"Batch %s rejected. %d entries discarded, stock untouched.",
		shortID(batch.BatchID), len(batch.Movements))})
}

// handleExport builds the stock workbook and shares the download link.
func (b *Bot) handleExport(ctx context.Context, chatID int64, by movementservice.Submitter) {
	if !by.IsAdmin {
		b.reply(ctx, chatID, telegram.Reply{Text: "Exports are admin-only."})
		return
	}

	link, err := b.reports.Export(ctx)
	if err != nil {
		b.reply(ctx, chatID, telegram.Reply{
			Text: "Export failed, the stock database or file store did not respond.",
		})
		return
	}
	b.reply(ctx, chatID, telegram.Reply{Text: "Stock report ready:\n" + link})
}

func approvalErrorReply(err error, batchID string) telegram.Reply {
	switch {
	case errors.Is(err, approval.ErrNotAdmin):
		return telegram.Reply{Text: "Only admins can approve or reject batches."}
	case errors.Is(err, approval.ErrBatchNotFound):
		return telegram.Reply{Text: fmt.Sprintf(
			"Batch %s not found. It may have been resolved already.", shortID(batchID))}
	default:
		return telegram.Reply{Text: "Approval failed: " + err.Error()}
	}
}
