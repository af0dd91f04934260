package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"sitestock-backend/internal/domains/approval"
	"sitestock-backend/internal/domains/movement/model"
	"sitestock-backend/internal/domains/movement/service"
	"sitestock-backend/internal/shared/response"
)

// Handler exposes the approval queue over the back-office REST API. It is
// the same controller the chat buttons drive, so decisions taken here show
// up in the chat flow and vice versa.
type Handler struct {
	approvals *approval.Controller
}

func NewHandler(approvals *approval.Controller) *Handler {
	return &Handler{approvals: approvals}
}

type movementResponse struct {
	ItemName string  `json:"item_name"`
	Type     string  `json:"type"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Project  string  `json:"project"`
	Driver   string  `json:"driver,omitempty"`
	From     string  `json:"from,omitempty"`
	To       string  `json:"to,omitempty"`
	Note     string  `json:"note,omitempty"`
	Reason   string  `json:"reason,omitempty"`
}

type batchResponse struct {
	BatchID     string             `json:"batch_id"`
	Status      string             `json:"status"`
	SubmittedBy string             `json:"submitted_by"`
	CreatedAt   time.Time          `json:"created_at"`
	Movements   []movementResponse `json:"movements"`
}

type resultResponse struct {
	BatchID        string   `json:"batch_id"`
	Total          int      `json:"total"`
	Posted         int      `json:"posted"`
	Failed         int      `json:"failed"`
	SuccessRate    float64  `json:"success_rate"`
	RolledBack     bool     `json:"rolled_back"`
	RollbackFailed bool     `json:"rollback_failed"`
	LowStock       []string `json:"low_stock,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
	Summary        string   `json:"summary"`
}

func toBatchResponse(b *approval.BatchApproval) batchResponse {
	movements := make([]movementResponse, 0, len(b.Movements))
	for i := range b.Movements {
		mv := &b.Movements[i]
		movements = append(movements, movementResponse{
			ItemName: mv.ItemName,
			Type:     string(mv.Type),
			Quantity: mv.Quantity,
			Unit:     mv.Unit,
			Project:  mv.Project,
			Driver:   mv.Driver,
			From:     mv.FromLocation,
			To:       mv.ToLocation,
			Note:     mv.Note,
			Reason:   mv.Reason,
		})
	}
	return batchResponse{
		BatchID:     b.BatchID,
		Status:      string(b.Status),
		SubmittedBy: b.Submitter.Name,
		CreatedAt:   b.CreatedAt,
		Movements:   movements,
	}
}

func toResultResponse(r *model.BatchResult) resultResponse {
	return resultResponse{
		BatchID:        r.BatchID,
		Total:          r.Total,
		Posted:         len(r.Successful),
		Failed:         len(r.Failed),
		SuccessRate:    r.SuccessRate(),
		RolledBack:     r.RolledBack,
		RollbackFailed: r.RollbackFailed,
		LowStock:       r.LowStock,
		Warnings:       r.Warnings,
		Summary:        r.Summary,
	}
}

// submitterFromContext rebuilds the acting user from the JWT claims the auth
// middleware stored.
func submitterFromContext(c *gin.Context) service.Submitter {
	userID, _ := strconv.ParseInt(c.GetString("user_id"), 10, 64)
	return service.Submitter{
		UserID:  userID,
		Name:    c.GetString("user_name"),
		IsAdmin: c.GetString("role") == "admin",
	}
}

// ListPending returns every batch still waiting for a decision.
// GET /api/v1/batches/pending
func (h *Handler) ListPending(c *gin.Context) {
	pending := h.approvals.Pending()

	out := make([]batchResponse, 0, len(pending))
	for _, b := range pending {
		out = append(out, toBatchResponse(b))
	}

	response.SuccessWithMeta(c, http.StatusOK, out, &response.Meta{Total: len(out)})
}

// GetBatch returns one staged batch.
// GET /api/v1/batches/:id
func (h *Handler) GetBatch(c *gin.Context) {
	batch, ok := h.approvals.Get(c.Param("id"))
	if !ok {
		response.NotFound(c, "batch not found")
		return
	}

	response.Success(c, http.StatusOK, toBatchResponse(batch))
}

// ApproveBatch posts a staged batch.
// POST /api/v1/batches/:id/approve
func (h *Handler) ApproveBatch(c *gin.Context) {
	result, err := h.approvals.Approve(c.Request.Context(), c.Param("id"), submitterFromContext(c))
	if err != nil {
		h.writeApprovalError(c, err)
		return
	}

	response.Success(c, http.StatusOK, toResultResponse(result))
}

// RejectBatch discards a staged batch without touching stock.
// POST /api/v1/batches/:id/reject
func (h *Handler) RejectBatch(c *gin.Context) {
	batch, err := h.approvals.Reject(c.Param("id"), submitterFromContext(c))
	if err != nil {
		h.writeApprovalError(c, err)
		return
	}

	response.Success(c, http.StatusOK, toBatchResponse(batch))
}

// VoidMovement reverses one posted movement of a batch.
// DELETE /api/v1/batches/:id/movements/:movement_id
func (h *Handler) VoidMovement(c *gin.Context) {
	err := h.approvals.Void(c.Request.Context(), c.Param("id"), c.Param("movement_id"), submitterFromContext(c))
	if err != nil {
		if errors.Is(err, approval.ErrMovementNotFound) {
			response.NotFound(c, "movement not found or not posted")
			return
		}
		h.writeApprovalError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"voided": true})
}

func (h *Handler) writeApprovalError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, approval.ErrNotAdmin):
		response.Forbidden(c, "admin role required")
	case errors.Is(err, approval.ErrBatchNotFound):
		response.NotFound(c, "batch not found")
	default:
		response.InternalServerError(c, err.Error())
	}
}
