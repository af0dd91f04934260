package handler

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"sitestock-backend/internal/domains/user/model"
	"sitestock-backend/internal/domains/user/repository"
	"sitestock-backend/internal/shared/response"
	"sitestock-backend/pkg/jwt"
)

// Handler issues back-office API tokens for registered Telegram users.
// Issuance is gated by a deployment-level API key; the role embedded in the
// token then decides what the admin endpoints allow.
type Handler struct {
	repo        repository.RepositoryInterface
	jwtManager  *jwt.Manager
	adminAPIKey string
	expiry      time.Duration
}

func NewHandler(repo repository.RepositoryInterface, jwtManager *jwt.Manager, adminAPIKey string, expiry time.Duration) *Handler {
	return &Handler{
		repo:        repo,
		jwtManager:  jwtManager,
		adminAPIKey: adminAPIKey,
		expiry:      expiry,
	}
}

type tokenRequest struct {
	TelegramID int64 `json:"telegram_id" binding:"required"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IssueToken exchanges the deployment API key plus a Telegram account id for
// a signed JWT.
// POST /api/v1/auth/token
func (h *Handler) IssueToken(c *gin.Context) {
	if h.adminAPIKey == "" {
		response.Forbidden(c, "token issuance is disabled")
		return
	}
	provided := c.GetHeader("X-Admin-Api-Key")
	if subtle.ConstantTimeCompare([]byte(provided), []byte(h.adminAPIKey)) != 1 {
		response.Unauthorized(c, "invalid api key")
		return
	}

	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "telegram_id is required")
		return
	}

	user, err := h.repo.GetByTelegramID(c.Request.Context(), req.TelegramID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			response.NotFound(c, "no registered user for that telegram id")
			return
		}
		response.InternalServerError(c, "user lookup failed")
		return
	}
	if !user.IsActive {
		response.Forbidden(c, "user is deactivated")
		return
	}

	token, err := h.jwtManager.GenerateToken(
		strconv.FormatInt(user.TelegramID, 10),
		user.Name,
		string(user.Role),
		h.expiry,
	)
	if err != nil {
		response.InternalServerError(c, "token generation failed")
		return
	}

	response.Success(c, http.StatusOK, tokenResponse{
		Token:     token,
		Name:      user.Name,
		Role:      string(user.Role),
		ExpiresAt: time.Now().Add(h.expiry),
	})
}

// ListUsers returns the registered roster.
// GET /api/v1/admin/users
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.repo.ListActive(c.Request.Context())
	if err != nil {
		response.InternalServerError(c, "user list failed")
		return
	}

	type userResponse struct {
		TelegramID int64  `json:"telegram_id"`
		Name       string `json:"name"`
		Role       string `json:"role"`
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userResponse{
			TelegramID: u.TelegramID,
			Name:       u.Name,
			Role:       string(u.Role),
		})
	}

	response.SuccessWithMeta(c, http.StatusOK, out, &response.Meta{Total: len(out)})
}
