package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sitestock-backend/internal/domains/catalog/model"
	"sitestock-backend/internal/infrastructure/sheetdb"
)

const itemsTable = "Items"

// sheetRepository persists the catalogue in the spreadsheet-style cloud store.
type sheetRepository struct {
	client *sheetdb.Client
}

// NewSheetRepository creates the sheet-backed catalogue repository.
func NewSheetRepository(client *sheetdb.Client) RepositoryInterface {
	return &sheetRepository{client: client}
}

func (r *sheetRepository) ListItems(ctx context.Context) ([]model.Item, error) {
	records, err := r.client.ListAll(ctx, itemsTable)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}

	items := make([]model.Item, 0, len(records))
	for _, rec := range records {
		item := itemFromRecord(rec)
		if item.IsActive {
			items = append(items, item)
		}
	}
	return items, nil
}

func (r *sheetRepository) GetByName(ctx context.Context, name string) (*model.Item, error) {
	// The sheet API has no indexed lookup; scan the table. Callers that need
	// repeated lookups go through the snapshot cache instead.
	items, err := r.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if strings.EqualFold(items[i].Name, name) {
			return &items[i], nil
		}
	}
	return nil, model.NewItemNotFoundError(name)
}

func (r *sheetRepository) Create(ctx context.Context, item *model.Item) error {
	if _, err := r.GetByName(ctx, item.Name); err == nil {
		return model.ErrItemAlreadyExists
	} else if !model.IsNotFoundError(err) {
		return err
	}

	rec, err := r.client.Create(ctx, itemsTable, itemFields(item))
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}
	item.ID = rec.ID
	return nil
}

func (r *sheetRepository) Update(ctx context.Context, item *model.Item) error {
	if item.ID == "" {
		return fmt.Errorf("update item %q: missing record id", item.Name)
	}
	if _, err := r.client.Update(ctx, itemsTable, item.ID, itemFields(item)); err != nil {
		return fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}
	return nil
}

// itemFields maps an Item onto the sheet columns.
func itemFields(item *model.Item) map[string]interface{} {
	fields := map[string]interface{}{
		"Name":      item.Name,
		"On Hand":   item.OnHand,
		"Unit Size": item.UnitSize,
		"Unit Type": item.UnitType,
		"Category":  item.Category,
		"Active":    item.IsActive,
	}
	if item.Location != "" {
		fields["Location"] = item.Location
	}
	if item.Project != "" {
		fields["Project"] = item.Project
	}
	if item.ReorderThreshold > 0 {
		fields["Reorder Threshold"] = item.ReorderThreshold
	}
	if item.LargeQtyThreshold > 0 {
		fields["Large Qty Threshold"] = item.LargeQtyThreshold
	}
	if item.LastStocktakeDate != nil {
		fields["Last Stocktake Date"] = item.LastStocktakeDate.Format("2006-01-02")
	}
	if item.LastStocktakeBy != "" {
		fields["Last Stocktake By"] = item.LastStocktakeBy
	}
	return fields
}

func itemFromRecord(rec sheetdb.Record) model.Item {
	item := model.Item{
		ID:                rec.ID,
		Name:              fieldString(rec.Fields, "Name"),
		OnHand:            fieldFloat(rec.Fields, "On Hand"),
		UnitSize:          fieldFloat(rec.Fields, "Unit Size"),
		UnitType:          fieldString(rec.Fields, "Unit Type"),
		Category:          fieldString(rec.Fields, "Category"),
		Location:          fieldString(rec.Fields, "Location"),
		Project:           fieldString(rec.Fields, "Project"),
		ReorderThreshold:  fieldFloat(rec.Fields, "Reorder Threshold"),
		LargeQtyThreshold: fieldFloat(rec.Fields, "Large Qty Threshold"),
		LastStocktakeBy:   fieldString(rec.Fields, "Last Stocktake By"),
	}

	// Rows created by hand in the sheet may miss defaults.
	if item.UnitSize <= 0 {
		item.UnitSize = 1
	}
	if item.UnitType == "" {
		item.UnitType = "piece"
	}
	if active, ok := rec.Fields["Active"].(bool); ok {
		item.IsActive = active
	} else {
		item.IsActive = true
	}
	if raw := fieldString(rec.Fields, "Last Stocktake Date"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			item.LastStocktakeDate = &t
		}
	}
	return item
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
