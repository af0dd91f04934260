package bot

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"sitestock-backend/internal/infrastructure/telegram"
)

// updateTimeout bounds one update's processing after the webhook has
// already been acknowledged.
const updateTimeout = 60 * time.Second

// WebhookHandler accepts Telegram webhook posts. The update is processed in
// the background; Telegram only needs the 200, and re-delivery on error
// would just trip the idempotency guard anyway.
func (b *Bot) WebhookHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var update telegram.Update
		if err := c.ShouldBindJSON(&update); err != nil {
			log.Warn().Err(err).Msg("undecodable webhook update dropped")
			c.JSON(http.StatusOK, gin.H{"ok": true})
			return
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
			defer cancel()
			b.HandleUpdate(ctx, update)
		}()

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
