package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RequestLogger writes one access-log line per request. Webhook deliveries
// log at debug so Telegram update traffic does not drown the back-office
// trail; server errors are raised to error level.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		evt := log.Info()
		switch {
		case status >= 500:
			evt = log.Error()
		case strings.HasPrefix(path, "/webhook/"):
			evt = log.Debug()
		}

		evt.Str("request_id", c.GetString("request_id")).
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("took", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request completed")
	}
}
