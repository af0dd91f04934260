package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sitestock-backend/internal/domains/report"
	"sitestock-backend/internal/shared/response"
)

type Handler struct {
	svc report.ServiceInterface
}

func NewHandler(svc report.ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

// Export builds the stock workbook and returns its download link.
// POST /api/v1/reports/export
func (h *Handler) Export(c *gin.Context) {
	link, err := h.svc.Export(c.Request.Context())
	if err != nil {
		response.InternalServerError(c, "export failed")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"download_url": link})
}

// LowStock lists items at or under their reorder threshold.
// GET /api/v1/reports/low-stock
func (h *Handler) LowStock(c *gin.Context) {
	names, err := h.svc.LowStock(c.Request.Context())
	if err != nil {
		response.InternalServerError(c, "low-stock check failed")
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, names, &response.Meta{Total: len(names)})
}
