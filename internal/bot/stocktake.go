package bot

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"sitestock-backend/internal/domains/movement/parser"
	movementservice "sitestock-backend/internal/domains/movement/service"
	"sitestock-backend/internal/infrastructure/telegram"
	"sitestock-backend/internal/shared/similarity"
)

// handleInventory parses and applies a cumulative stocktake.
func (b *Bot) handleInventory(ctx context.Context, chatID int64, fullText, body string, by movementservice.Submitter) {
	dup, err := b.idem.IsDuplicate(ctx, fullText)
	if err != nil {
		log.Warn().Err(err).Msg("idempotency check failed, continuing")
	} else if dup {
		log.Info().Int64("chat_id", chatID).Msg("duplicate stocktake dropped")
		return
	}

	parsed := parser.ParseStocktake(body)
	if !parsed.IsValid() {
		b.reply(ctx, chatID, stocktakeErrorReply(parsed))
		return
	}

	// Counted names that closely resemble a differently spelled catalogue
	// item get a hint, but the count still applies to the entered name.
	if items, snapErr := b.catalog.Snapshot(ctx); snapErr == nil {
		for _, entry := range parsed.Entries {
			for i := range items {
				score := similarity.Score(entry.ItemName, items[i].Name)
				if score >= similarity.SimilarThreshold && score < similarity.ExactThreshold {
					parsed.Warnings = append(parsed.Warnings,
						entry.ItemName+" resembles existing "+items[i].Name+", check the spelling")
					break
				}
			}
		}
	}

	if _, err := b.idem.StoreKey(ctx, fullText, time.Duration(b.idemTTLSecs)*time.Second); err != nil {
		log.Warn().Err(err).Msg("idempotency store failed")
	}

	result := b.stocktakes.Apply(ctx, parsed)
	b.reply(ctx, chatID, stocktakeReply(parsed, result))
}

// handleInventoryValidate parses a stocktake block and reports what would
// happen, without writing anything.
func (b *Bot) handleInventoryValidate(ctx context.Context, chatID int64, body string) {
	parsed := parser.ParseStocktake(body)
	if !parsed.IsValid() {
		b.reply(ctx, chatID, stocktakeErrorReply(parsed))
		return
	}
	b.reply(ctx, chatID, telegram.Reply{Text: stocktakeValidateText(parsed)})
}
