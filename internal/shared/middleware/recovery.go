package middleware

import (
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"sitestock-backend/internal/shared/response"
)

// Recovery turns a handler panic into a 500 envelope. Telegram keeps
// retrying webhook deliveries that never get an answer, so even a panicking
// update handler must respond.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("request_id", c.GetString("request_id")).
					Str("method", c.Request.Method).
					Str("path", c.Request.URL.Path).
					Interface("panic", r).
					Bytes("stack", debug.Stack()).
					Msg("handler panicked")

				response.InternalServerError(c, "internal error")
				c.Abort()
			}
		}()

		c.Next()
	}
}
