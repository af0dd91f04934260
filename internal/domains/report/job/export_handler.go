package job

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"sitestock-backend/internal/domains/report"
	"sitestock-backend/internal/infrastructure/telegram"
	"sitestock-backend/internal/shared"
)

// ExportStockReportHandler builds the weekly stock workbook and posts the
// download link to the configured chats.
type ExportStockReportHandler struct {
	reports report.ServiceInterface
	sender  telegram.Sender
}

func NewExportStockReportHandler(reports report.ServiceInterface, sender telegram.Sender) *ExportStockReportHandler {
	return &ExportStockReportHandler{reports: reports, sender: sender}
}

func (h *ExportStockReportHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.ExportStockReportPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal export payload: %w", err)
	}

	link, err := h.reports.Export(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Scheduled stock export failed")
		return err
	}

	log.Info().Str("link", link).Msg("Scheduled stock export finished")

	text := "Weekly stock report is ready:\n" + link
	for _, chatID := range payload.ChatIDs {
		if err := h.sender.SendReply(ctx, chatID, telegram.Reply{Text: text}); err != nil {
			log.Error().Err(err).Int64("chat_id", chatID).Msg("Report link delivery failed")
		}
	}
	return nil
}

// LowStockAlertHandler checks reorder thresholds and notifies the configured
// chats when anything runs low.
type LowStockAlertHandler struct {
	reports report.ServiceInterface
	sender  telegram.Sender
}

func NewLowStockAlertHandler(reports report.ServiceInterface, sender telegram.Sender) *LowStockAlertHandler {
	return &LowStockAlertHandler{reports: reports, sender: sender}
}

func (h *LowStockAlertHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.LowStockAlertPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal low-stock payload: %w", err)
	}

	names, err := h.reports.LowStock(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Low-stock check failed")
		return err
	}
	if len(names) == 0 {
		log.Info().Msg("Low-stock check clean")
		return nil
	}

	var b strings.Builder
	b.WriteString("Low stock warning, reorder soon:\n")
	for _, name := range names {
		b.WriteString("- " + name + "\n")
	}

	text := b.String()
	for _, chatID := range payload.ChatIDs {
		if err := h.sender.SendReply(ctx, chatID, telegram.Reply{Text: text}); err != nil {
			log.Error().Err(err).Int64("chat_id", chatID).Msg("Low-stock alert delivery failed")
		}
	}
	return nil
}
