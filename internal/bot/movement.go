package bot

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"sitestock-backend/internal/domains/duplicate"
	"sitestock-backend/internal/domains/movement/model"
	"sitestock-backend/internal/domains/movement/parser"
	movementservice "sitestock-backend/internal/domains/movement/service"
	"sitestock-backend/internal/infrastructure/telegram"
)

// handleMovement runs the in/out/adjust pipeline: idempotency, parse,
// duplicate scan, stage for approval.
func (b *Bot) handleMovement(ctx context.Context, chatID int64, t model.MovementType, fullText, body string, by movementservice.Submitter) {
	// A resubmission of the same text within the TTL is dropped without
	// a reply.
	dup, err := b.idem.IsDuplicate(ctx, fullText)
	if err != nil {
		log.Warn().Err(err).Msg("idempotency check failed, continuing")
	} else if dup {
		log.Info().Int64("chat_id", chatID).Msg("duplicate submission dropped")
		return
	}

	batch := parser.ParseMovement(t, body)
	if !batch.IsValid() {
		b.reply(ctx, chatID, parseErrorReply(batch))
		return
	}

	items, err := b.catalog.Snapshot(ctx)
	if err != nil {
		b.reply(ctx, chatID, telegram.Reply{
			Text: "The stock database did not respond. Wait a moment and try again.",
		})
		return
	}
	analysis := duplicate.Analyze(batch, items, b.policy)

	if _, err := b.idem.StoreKey(ctx, fullText, time.Duration(b.idemTTLSecs)*time.Second); err != nil {
		log.Warn().Err(err).Msg("idempotency store failed")
	}

	if analysis.HasPendingConfirmations() {
		b.approvals.StageDuplicates(chatID, batch.Type, analysis.NeedsConfirm, by)

		// Entries without an open question continue to staging; the parked
		// ones follow once the user decides.
		remaining := withoutPending(batch.Movements, analysis.NeedsConfirm)
		if len(remaining) > 0 {
			b.stageForApproval(ctx, chatID, remaining, by, batch.Warnings, analysis.Warnings)
		}
		b.reply(ctx, chatID, duplicatePrompt(analysis.NeedsConfirm))
		return
	}

	b.stageForApproval(ctx, chatID, batch.Movements, by, batch.Warnings, analysis.Warnings)
}

// stageForApproval snapshots before-levels, parks the batch and prompts the
// chat with approve/reject buttons.
func (b *Bot) stageForApproval(ctx context.Context, chatID int64, movements []model.StockMovement, by movementservice.Submitter, warnings ...[]string) {
	before := make(map[string]float64)
	for i := range movements {
		name := movements[i].ItemName
		if _, done := before[name]; done {
			continue
		}
		if item, err := b.catalog.GetByName(ctx, name); err == nil {
			before[name] = item.OnHand
		} else {
			before[name] = 0
		}
	}

	batchID := b.approvals.Stage(movements, by, chatID, before)

	var all []string
	for _, w := range warnings {
		all = append(all, w...)
	}
	b.reply(ctx, chatID, stagedReply(batchID, movements, before, all))
}

// handlePreview reports the duplicate analysis without staging anything.
func (b *Bot) handlePreview(ctx context.Context, chatID int64, body string) {
	verb, rest := splitVerb(body)
	t, ok := model.ParseMovementType(verb)
	if !ok {
		b.reply(ctx, chatID, telegram.Reply{Text: "Usage: preview in|out <entries>"})
		return
	}

	batch := parser.ParseMovement(t, rest)
	if !batch.IsValid() {
		b.reply(ctx, chatID, parseErrorReply(batch))
		return
	}

	items, err := b.catalog.Snapshot(ctx)
	if err != nil {
		b.reply(ctx, chatID, telegram.Reply{
			Text: "The stock database did not respond. Wait a moment and try again.",
		})
		return
	}

	// Preview must not rewrite entries, so scan a copy.
	preview := *batch
	preview.Movements = append([]model.StockMovement(nil), batch.Movements...)
	analysis := duplicate.Analyze(&preview, items, b.policy)

	b.reply(ctx, chatID, previewReply(&preview, analysis))
}

// withoutPending drops the movements parked for confirmation.
func withoutPending(movements []model.StockMovement, pending []duplicate.Match) []model.StockMovement {
	parked := make(map[int]bool, len(pending))
	for _, m := range pending {
		parked[m.ItemIndex] = true
	}
	var out []model.StockMovement
	for i := range movements {
		if !parked[i] {
			out = append(out, movements[i])
		}
	}
	return out
}
