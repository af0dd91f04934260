package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"sitestock-backend/internal/domains/approval"
	"sitestock-backend/internal/domains/movement/model"
	movementservice "sitestock-backend/internal/domains/movement/service"
	"sitestock-backend/internal/infrastructure/telegram"
)

// handleCallback dispatches an inline-button press. The token formats are
// fixed and round-trip verbatim through the transport.
func (b *Bot) handleCallback(ctx context.Context, cb *telegram.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	if !b.users.IsAllowedChat(chatID) {
		return
	}

	user, err := b.users.Resolve(ctx, cb.From.ID, cb.From.DisplayName())
	if err != nil {
		log.Error().Err(err).Int64("telegram_id", cb.From.ID).Msg("callback user resolve failed")
		b.answerCallback(ctx, cb.ID, "Account lookup failed, try again.")
		return
	}
	by := movementservice.Submitter{
		UserID:  user.TelegramID,
		Name:    user.Name,
		IsAdmin: user.IsAdmin(),
	}

	data := cb.Data
	switch {
	case strings.HasPrefix(data, "approvebatch:"):
		b.callbackApprove(ctx, cb, chatID, strings.TrimPrefix(data, "approvebatch:"), by)

	case strings.HasPrefix(data, "rejectbatch:"):
		b.callbackReject(ctx, cb, chatID, strings.TrimPrefix(data, "rejectbatch:"), by)

	case strings.HasPrefix(data, "confirm_individual_"):
		b.callbackResolveDuplicate(ctx, cb, chatID,
			strings.TrimPrefix(data, "confirm_individual_"), approval.ActionConfirm, by)

	case strings.HasPrefix(data, "cancel_individual_"):
		b.callbackResolveDuplicate(ctx, cb, chatID,
			strings.TrimPrefix(data, "cancel_individual_"), approval.ActionCancel, by)

	case data == "confirm_all_duplicates":
		b.callbackResolveAll(ctx, cb, chatID, approval.ActionConfirm, by)

	case data == "cancel_all_duplicates":
		b.callbackResolveAll(ctx, cb, chatID, approval.ActionCancel, by)

	case data == "show_all_duplicates":
		b.callbackShowDuplicates(ctx, cb, chatID)

	case strings.HasPrefix(data, "stock_item_"):
		b.callbackStockItem(ctx, cb, chatID, strings.TrimPrefix(data, "stock_item_"))

	case strings.HasPrefix(data, "stock_page_"):
		b.callbackStockPage(ctx, cb, chatID, strings.TrimPrefix(data, "stock_page_"))

	default:
		b.answerCallback(ctx, cb.ID, "Unknown action.")
	}
}

func (b *Bot) callbackApprove(ctx context.Context, cb *telegram.CallbackQuery, chatID int64, batchID string, by movementservice.Submitter) {
	result, err := b.approvals.Approve(ctx, batchID, by)
	if err != nil {
		b.answerCallback(ctx, cb.ID, approvalErrorReply(err, batchID).Text)
		return
	}
	b.answerCallback(ctx, cb.ID, "Batch approved.")
	b.reply(ctx, chatID, resultReply(result))
}

func (b *Bot) callbackReject(ctx context.Context, cb *telegram.CallbackQuery, chatID int64, batchID string, by movementservice.Submitter) {
	batch, err := b.approvals.Reject(batchID, by)
	if err != nil {
		b.answerCallback(ctx, cb.ID, approvalErrorReply(err, batchID).Text)
		return
	}
	b.answerCallback(ctx, cb.ID, "Batch rejected.")
	b.reply(ctx, chatID, telegram.Reply{Text: fmt.Sprintf(
		"Batch %s rejected. %d entries discarded, stock untouched.",
		shortID(batch.BatchID), len(batch.Movements))})
}

func (b *Bot) callbackResolveDuplicate(ctx context.Context, cb *telegram.CallbackQuery, chatID int64, rawIndex string, action approval.DuplicateAction, by movementservice.Submitter) {
	index, err := strconv.Atoi(rawIndex)
	if err != nil {
		b.answerCallback(ctx, cb.ID, "Bad duplicate index.")
		return
	}

	done, movements, err := b.approvals.ResolveDuplicate(chatID, index, action)
	if err != nil {
		b.answerCallback(ctx, cb.ID, err.Error())
		return
	}
	if !done {
		b.answerCallback(ctx, cb.ID, fmt.Sprintf("Entry %d noted.", index+1))
		return
	}

	b.answerCallback(ctx, cb.ID, "All duplicates resolved.")
	b.finishDuplicates(ctx, chatID, movements, by)
}

func (b *Bot) callbackResolveAll(ctx context.Context, cb *telegram.CallbackQuery, chatID int64, action approval.DuplicateAction, by movementservice.Submitter) {
	movements, err := b.approvals.ResolveAllDuplicates(chatID, action)
	if err != nil {
		b.answerCallback(ctx, cb.ID, err.Error())
		return
	}
	b.answerCallback(ctx, cb.ID, "All duplicates resolved.")
	b.finishDuplicates(ctx, chatID, movements, by)
}

// finishDuplicates stages the decided movements, or closes the dialogue when
// everything was cancelled.
func (b *Bot) finishDuplicates(ctx context.Context, chatID int64, movements []model.StockMovement, by movementservice.Submitter) {
	if len(movements) == 0 {
		b.reply(ctx, chatID, telegram.Reply{Text: "All duplicate entries cancelled, nothing to apply."})
		return
	}
	b.stageForApproval(ctx, chatID, movements, by)
}

func (b *Bot) callbackShowDuplicates(ctx context.Context, cb *telegram.CallbackQuery, chatID int64) {
	pending, ok := b.approvals.GetDuplicates(chatID)
	if !ok {
		b.answerCallback(ctx, cb.ID, "No pending duplicates.")
		return
	}
	b.answerCallback(ctx, cb.ID, "")
	b.reply(ctx, chatID, duplicateListReply(pending))
}

// callbackStockItem shows the detail card for one search hit. The token is
// "<index>_<slug>"; the slug is what identifies the item.
func (b *Bot) callbackStockItem(ctx context.Context, cb *telegram.CallbackQuery, chatID int64, token string) {
	idx := strings.Index(token, "_")
	if idx < 0 {
		b.answerCallback(ctx, cb.ID, "Bad item token.")
		return
	}
	slug := token[idx+1:]

	items, err := b.catalog.Snapshot(ctx)
	if err != nil {
		b.answerCallback(ctx, cb.ID, "Stock lookup failed, try again.")
		return
	}
	for i := range items {
		if slugify(items[i].Name) == slug {
			b.answerCallback(ctx, cb.ID, "")
			b.reply(ctx, chatID, itemDetailReply(&items[i]))
			return
		}
	}
	b.answerCallback(ctx, cb.ID, "Item no longer in the catalogue.")
}

// callbackStockPage re-runs a search for "prev_<qhash>_<page>" or
// "next_<qhash>_<page>" tokens.
func (b *Bot) callbackStockPage(ctx context.Context, cb *telegram.CallbackQuery, chatID int64, token string) {
	parts := strings.Split(token, "_")
	if len(parts) != 3 {
		b.answerCallback(ctx, cb.ID, "Bad page token.")
		return
	}
	direction, qhash, rawPage := parts[0], parts[1], parts[2]
	page, err := strconv.Atoi(rawPage)
	if err != nil {
		b.answerCallback(ctx, cb.ID, "Bad page token.")
		return
	}

	query, ok := b.lookupSearch(qhash)
	if !ok {
		b.answerCallback(ctx, cb.ID, "This search expired, send the stock command again.")
		return
	}

	switch direction {
	case "prev":
		page--
	case "next":
		page++
	default:
		b.answerCallback(ctx, cb.ID, "Bad page token.")
		return
	}

	b.answerCallback(ctx, cb.ID, "")
	b.handleStock(ctx, chatID, query, page)
}

func (b *Bot) answerCallback(ctx context.Context, callbackID, text string) {
	if err := b.sender.AnswerCallback(ctx, callbackID, text); err != nil {
		log.Warn().Err(err).Msg("answer callback failed")
	}
}
