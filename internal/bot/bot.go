package bot

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"sitestock-backend/internal/domains/approval"
	catalogservice "sitestock-backend/internal/domains/catalog/service"
	"sitestock-backend/internal/domains/duplicate"
	"sitestock-backend/internal/domains/movement/model"
	movementservice "sitestock-backend/internal/domains/movement/service"
	"sitestock-backend/internal/domains/report"
	userservice "sitestock-backend/internal/domains/user/service"
	"sitestock-backend/internal/infrastructure/telegram"
	"sitestock-backend/internal/shared/idempotency"
)

// Bot routes inbound chat updates to the command pipeline.
type Bot struct {
	users      userservice.ServiceInterface
	catalog    catalogservice.ServiceInterface
	stocktakes *movementservice.StocktakeService
	approvals  *approval.Controller
	idem       *idempotency.Store
	sender     telegram.Sender
	reports    report.ServiceInterface

	idemTTLSecs int
	policy      duplicate.Policy

	// searches maps query hashes to their original text so pagination
	// callbacks can re-run the search.
	mu       sync.Mutex
	searches map[string]string
}

// New creates the bot.
func New(
	users userservice.ServiceInterface,
	catalog catalogservice.ServiceInterface,
	stocktakes *movementservice.StocktakeService,
	approvals *approval.Controller,
	idem *idempotency.Store,
	sender telegram.Sender,
	reports report.ServiceInterface,
	idemTTLSecs int,
) *Bot {
	return &Bot{
		users:       users,
		catalog:     catalog,
		stocktakes:  stocktakes,
		approvals:   approvals,
		idem:        idem,
		sender:      sender,
		reports:     reports,
		idemTTLSecs: idemTTLSecs,
		policy:      duplicate.DefaultPolicy(),
		searches:    make(map[string]string),
	}
}

// HandleUpdate processes one webhook update. Errors are reported to the chat;
// the webhook itself always acknowledges.
func (b *Bot) HandleUpdate(ctx context.Context, update telegram.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.Text != "":
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *telegram.Message) {
	chatID := msg.Chat.ID
	if !b.users.IsAllowedChat(chatID) {
		log.Warn().Int64("chat_id", chatID).Msg("message from disallowed chat ignored")
		return
	}
	if msg.From == nil {
		return
	}

	user, err := b.users.Resolve(ctx, msg.From.ID, msg.From.DisplayName())
	if err != nil {
		log.Error().Err(err).Int64("telegram_id", msg.From.ID).Msg("user resolve failed")
		b.reply(ctx, chatID, telegram.Reply{Text: "Could not look up your account, try again shortly."})
		return
	}
	submitter := movementservice.Submitter{
		UserID:  user.TelegramID,
		Name:    user.Name,
		IsAdmin: user.IsAdmin(),
	}

	text := strings.TrimSpace(msg.Text)
	verb, body := splitVerb(text)

	switch verb {
	case "in":
		b.handleMovement(ctx, chatID, model.MovementIn, text, body, submitter)
	case "out":
		b.handleMovement(ctx, chatID, model.MovementOut, text, body, submitter)
	case "adjust":
		if !submitter.IsAdmin {
			b.reply(ctx, chatID, telegram.Reply{Text: "Adjustments are admin-only."})
			return
		}
		b.handleMovement(ctx, chatID, model.MovementAdjust, text, body, submitter)
	case "inventory":
		sub, rest := splitVerb(body)
		if sub == "validate" {
			b.handleInventoryValidate(ctx, chatID, rest)
			return
		}
		b.handleInventory(ctx, chatID, text, body, submitter)
	case "stock":
		b.handleStock(ctx, chatID, body, 0)
	case "preview":
		b.handlePreview(ctx, chatID, body)
	case "approve":
		b.handleApprove(ctx, chatID, strings.TrimSpace(body), submitter)
	case "reject":
		b.handleReject(ctx, chatID, strings.TrimSpace(body), submitter)
	case "export":
		b.handleExport(ctx, chatID, submitter)
	case "help":
		b.reply(ctx, chatID, helpReply(strings.TrimSpace(body)))
	default:
		b.reply(ctx, chatID, telegram.Reply{
			Text: "Unknown command. Send 'help' for the list of commands.",
		})
	}
}

// splitVerb separates the command verb from its payload.
func splitVerb(text string) (string, string) {
	trimmed := strings.TrimSpace(text)
	idx := strings.IndexAny(trimmed, " \t\n")
	if idx < 0 {
		return strings.ToLower(trimmed), ""
	}
	return strings.ToLower(trimmed[:idx]), strings.TrimSpace(trimmed[idx:])
}

func (b *Bot) reply(ctx context.Context, chatID int64, reply telegram.Reply) {
	if err := b.sender.SendReply(ctx, chatID, reply); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("send reply failed")
	}
}
