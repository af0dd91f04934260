package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	catalogmodel "sitestock-backend/internal/domains/catalog/model"
	"sitestock-backend/internal/domains/movement/model"
	"sitestock-backend/internal/infrastructure/sheetdb"
)

const (
	movementsTable  = "Movements"
	stocktakesTable = "Stocktakes"

	movementSource = "Telegram"
)

// sheetRepository records movements in the spreadsheet-style cloud store.
type sheetRepository struct {
	client *sheetdb.Client
}

// NewSheetRepository creates the sheet-backed movement repository.
func NewSheetRepository(client *sheetdb.Client) RepositoryInterface {
	return &sheetRepository{client: client}
}

func (r *sheetRepository) CreateMovement(ctx context.Context, mv *model.StockMovement) error {
	rec, err := r.client.Create(ctx, movementsTable, movementFields(mv))
	if err != nil {
		return fmt.Errorf("%w: %v", catalogmodel.ErrStoreUnavailable, err)
	}
	mv.ID = rec.ID
	return nil
}

func (r *sheetRepository) UpdateStatus(ctx context.Context, id string, status model.Status) error {
	fields := map[string]interface{}{"Status": string(status)}
	if _, err := r.client.Update(ctx, movementsTable, id, fields); err != nil {
		return fmt.Errorf("%w: %v", catalogmodel.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *sheetRepository) ListByBatch(ctx context.Context, batchID string) ([]model.StockMovement, error) {
	records, err := r.client.ListAll(ctx, movementsTable)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", catalogmodel.ErrStoreUnavailable, err)
	}

	var out []model.StockMovement
	for _, rec := range records {
		if fieldString(rec.Fields, "Batch Id") == batchID {
			out = append(out, movementFromRecord(rec))
		}
	}
	return out, nil
}

func (r *sheetRepository) ListSince(ctx context.Context, since time.Time) ([]model.StockMovement, error) {
	records, err := r.client.ListAll(ctx, movementsTable)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", catalogmodel.ErrStoreUnavailable, err)
	}

	var out []model.StockMovement
	for _, rec := range records {
		mv := movementFromRecord(rec)
		if !mv.Timestamp.Before(since) {
			out = append(out, mv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (r *sheetRepository) CreateStocktake(ctx context.Context, st *model.InventoryStocktake) error {
	fields := map[string]interface{}{
		"Batch Id":         st.BatchID,
		"Date":             st.Date,
		"Name":             st.ItemName,
		"Counted Qty":      st.CountedQty,
		"Previous On Hand": st.PreviousOnHand,
		"New On Hand":      st.NewOnHand,
		"Discrepancy":      st.Discrepancy,
		"Applied At":       st.AppliedAt.Format(time.RFC3339),
		"Applied By":       st.AppliedBy,
	}
	if _, err := r.client.Create(ctx, stocktakesTable, fields); err != nil {
		return fmt.Errorf("%w: %v", catalogmodel.ErrStoreUnavailable, err)
	}
	return nil
}

// movementFields maps a movement onto the sheet columns.
func movementFields(mv *model.StockMovement) map[string]interface{} {
	fields := map[string]interface{}{
		"Name":         mv.ItemName,
		"Type":         string(mv.Type),
		"Quantity":     mv.Quantity,
		"Unit":         mv.Unit,
		"Status":       string(mv.Status),
		"Requested By": mv.UserName,
		"Source":       movementSource,
		"Created At":   mv.Timestamp.Format(time.RFC3339),
		"Reason":       mv.Reason,
		"Batch Id":     mv.BatchID,
	}
	if mv.Category != "" {
		fields["Category"] = mv.Category
	}
	if mv.Driver != "" {
		fields["Driver Name"] = mv.Driver
	}
	if mv.UserID != 0 {
		fields["Telegram Users"] = fmt.Sprintf("%d", mv.UserID)
	}
	if mv.FromLocation != "" {
		fields["From"] = mv.FromLocation
	}
	if mv.ToLocation != "" {
		fields["To"] = mv.ToLocation
	}
	if mv.Project != "" {
		fields["Project"] = mv.Project
	}
	if mv.Note != "" {
		fields["Note"] = mv.Note
	}
	return fields
}

func movementFromRecord(rec sheetdb.Record) model.StockMovement {
	mv := model.StockMovement{
		ID:           rec.ID,
		BatchID:      fieldString(rec.Fields, "Batch Id"),
		ItemName:     fieldString(rec.Fields, "Name"),
		Type:         model.MovementType(fieldString(rec.Fields, "Type")),
		Quantity:     fieldFloat(rec.Fields, "Quantity"),
		Unit:         fieldString(rec.Fields, "Unit"),
		Status:       model.Status(fieldString(rec.Fields, "Status")),
		UserName:     fieldString(rec.Fields, "Requested By"),
		Reason:       fieldString(rec.Fields, "Reason"),
		Category:     fieldString(rec.Fields, "Category"),
		Driver:       fieldString(rec.Fields, "Driver Name"),
		FromLocation: fieldString(rec.Fields, "From"),
		ToLocation:   fieldString(rec.Fields, "To"),
		Project:      fieldString(rec.Fields, "Project"),
		Note:         fieldString(rec.Fields, "Note"),
	}
	mv.SignedBaseQuantity = model.Sign(mv.Type, mv.Quantity)
	if raw := fieldString(rec.Fields, "Created At"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			mv.Timestamp = t
		}
	}
	return mv
}

func fieldString(fields map[string]interface{}, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

func fieldFloat(fields map[string]interface{}, key string) float64 {
	if v, ok := fields[key].(float64); ok {
		return v
	}
	return 0
}
