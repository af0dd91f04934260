package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"sitestock-backend/internal/config"
)

// Sender is the outbound chat contract the bot depends on.
type Sender interface {
	SendReply(ctx context.Context, chatID int64, reply Reply) error
	EditMessage(ctx context.Context, chatID, messageID int64, reply Reply) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// Client calls the Telegram Bot API over HTTPS.
type Client struct {
	apiURL     string
	token      string
	httpClient *http.Client
}

// NewClient creates a Telegram client with a bounded request timeout.
func NewClient(cfg config.TelegramConfig) *Client {
	return &Client{
		apiURL: cfg.APIURL,
		token:  cfg.BotToken,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.apiURL, c.token, method)
}

// SendReply implements Sender.SendReply
func (c *Client) SendReply(ctx context.Context, chatID int64, reply Reply) error {
	req := sendMessageRequest{
		ChatID:    chatID,
		Text:      reply.Text,
		ParseMode: "HTML",
	}
	if len(reply.Buttons) > 0 {
		req.ReplyMarkup = &InlineKeyboardMarkup{InlineKeyboard: reply.Buttons}
	}
	return c.call(ctx, "sendMessage", req)
}

// EditMessage implements Sender.EditMessage
func (c *Client) EditMessage(ctx context.Context, chatID, messageID int64, reply Reply) error {
	req := editMessageRequest{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      reply.Text,
		ParseMode: "HTML",
	}
	if len(reply.Buttons) > 0 {
		req.ReplyMarkup = &InlineKeyboardMarkup{InlineKeyboard: reply.Buttons}
	}
	return c.call(ctx, "editMessageText", req)
}

// AnswerCallback implements Sender.AnswerCallback
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	return c.call(ctx, "answerCallbackQuery", answerCallbackRequest{
		CallbackQueryID: callbackID,
		Text:            text,
	})
}

// call posts one Bot API method with at most one retry on transient failures.
func (c *Client) call(ctx context.Context, method string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", method, err)
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(300 * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("build %s request: %w", method, err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("telegram %s failed: %w", method, err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read %s response: %w", method, err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("telegram unavailable: status %d", resp.StatusCode)
			continue
		}

		var api apiResponse
		if err := json.Unmarshal(respBody, &api); err != nil {
			return fmt.Errorf("unmarshal %s response: %w", method, err)
		}
		if !api.OK {
			log.Warn().Str("method", method).Int("error_code", api.ErrorCode).
				Str("description", api.Description).Msg("telegram API rejected call")
			return fmt.Errorf("telegram %s: %s (code %d)", method, api.Description, api.ErrorCode)
		}
		return nil
	}
	return lastErr
}
