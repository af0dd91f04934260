package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"sitestock-backend/internal/domains/catalog/model"
	"sitestock-backend/internal/domains/catalog/service"
	"sitestock-backend/internal/shared/response"
)

type Handler struct {
	svc service.ServiceInterface
}

func NewHandler(svc service.ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

// itemResponse is the back-office view of one catalogue entry.
type itemResponse struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	OnHand            float64    `json:"on_hand"`
	UnitSize          float64    `json:"unit_size"`
	UnitType          string     `json:"unit_type"`
	TotalVolume       float64    `json:"total_volume"`
	Category          string     `json:"category"`
	Location          string     `json:"location,omitempty"`
	Project           string     `json:"project,omitempty"`
	ReorderThreshold  float64    `json:"reorder_threshold,omitempty"`
	NeedsReorder      bool       `json:"needs_reorder"`
	IsActive          bool       `json:"is_active"`
	LastStocktakeDate *time.Time `json:"last_stocktake_date,omitempty"`
	LastStocktakeBy   string     `json:"last_stocktake_by,omitempty"`
}

func toItemResponse(item *model.Item) itemResponse {
	return itemResponse{
		ID:                item.ID,
		Name:              item.Name,
		OnHand:            item.OnHand,
		UnitSize:          item.UnitSize,
		UnitType:          item.UnitType,
		TotalVolume:       item.TotalVolume(),
		Category:          item.Category,
		Location:          item.Location,
		Project:           item.Project,
		ReorderThreshold:  item.ReorderThreshold,
		NeedsReorder:      item.NeedsReorder(),
		IsActive:          item.IsActive,
		LastStocktakeDate: item.LastStocktakeDate,
		LastStocktakeBy:   item.LastStocktakeBy,
	}
}

// ListItems returns the catalogue, optionally filtered by a fuzzy query.
// GET /api/v1/items?q=&page=&limit=
func (h *Handler) ListItems(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	var items []model.Item
	if q := c.Query("q"); q != "" {
		results, err := h.svc.Search(c.Request.Context(), q)
		if err != nil {
			response.InternalServerError(c, "catalogue search failed")
			return
		}
		items = make([]model.Item, 0, len(results))
		for _, r := range results {
			items = append(items, r.Item)
		}
	} else {
		snapshot, err := h.svc.Snapshot(c.Request.Context())
		if err != nil {
			response.InternalServerError(c, "catalogue unavailable")
			return
		}
		items = snapshot
	}

	total := len(items)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	out := make([]itemResponse, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, toItemResponse(&items[i]))
	}

	response.SuccessWithMeta(c, http.StatusOK, out, &response.Meta{
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

// GetItem does an exact name lookup against the live store.
// GET /api/v1/items/:name
func (h *Handler) GetItem(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		response.BadRequest(c, "item name is required")
		return
	}

	item, err := h.svc.GetByName(c.Request.Context(), name)
	if err != nil {
		if model.IsNotFoundError(err) {
			response.NotFound(c, "item not found")
			return
		}
		response.InternalServerError(c, "catalogue unavailable")
		return
	}

	response.Success(c, http.StatusOK, toItemResponse(item))
}
