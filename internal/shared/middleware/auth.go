package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"sitestock-backend/internal/shared/response"
	"sitestock-backend/pkg/jwt"
)

// Auth validates the Bearer token and puts the claims on the context.
func Auth(manager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := manager.ValidateToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_name", claims.Name)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// Admin requires the admin role set by Auth.
func Admin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := c.Get("role")
		if !ok || role != "admin" {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "Access denied: admin role required",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// WebhookSecret verifies the Telegram webhook secret token header when one
// is configured.
func WebhookSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret != "" && c.GetHeader("X-Telegram-Bot-Api-Secret-Token") != secret {
			response.Unauthorized(c, "bad webhook secret")
			c.Abort()
			return
		}
		c.Next()
	}
}
