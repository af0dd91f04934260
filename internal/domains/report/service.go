package report

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	catalogservice "sitestock-backend/internal/domains/catalog/service"
	movementrepo "sitestock-backend/internal/domains/movement/repository"
	"sitestock-backend/internal/infrastructure/storage"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ServiceInterface builds and publishes stock reports.
type ServiceInterface interface {
	// Export builds the stock workbook, uploads it and returns a download
	// link.
	Export(ctx context.Context) (string, error)

	// LowStock lists item names at or under their reorder threshold.
	LowStock(ctx context.Context) ([]string, error)
}

// ReportService renders the catalogue and recent movements into an xlsx
// workbook on the object store.
type ReportService struct {
	catalog   catalogservice.ServiceInterface
	movements movementrepo.RepositoryInterface
	store     storage.ObjectStore
	rowLimit  int
}

// NewService creates a new report service.
func NewService(catalog catalogservice.ServiceInterface, movements movementrepo.RepositoryInterface, store storage.ObjectStore, rowLimit int) ServiceInterface {
	if rowLimit <= 0 {
		rowLimit = 5000
	}
	return &ReportService{catalog: catalog, movements: movements, store: store, rowLimit: rowLimit}
}

// Export implements ServiceInterface.Export
func (s *ReportService) Export(ctx context.Context) (string, error) {
	items, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return "", fmt.Errorf("export: load catalogue: %w", err)
	}
	movements, err := s.movements.ListSince(ctx, time.Now().AddDate(0, -1, 0))
	if err != nil {
		return "", fmt.Errorf("export: load movements: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	itemsSheet := "Items"
	f.SetSheetName("Sheet1", itemsSheet)
	headers := []interface{}{"Name", "Category", "On Hand", "Unit Size", "Unit Type", "Total Volume", "Reorder Threshold", "Project"}
	if err := f.SetSheetRow(itemsSheet, "A1", &headers); err != nil {
		return "", fmt.Errorf("export: write header: %w", err)
	}

	// Totals accumulate in decimals so big sheets do not drift.
	totalOnHand := decimal.Zero
	totalVolume := decimal.Zero
	row := 2
	for i := range items {
		if row-1 > s.rowLimit {
			break
		}
		it := &items[i]
		volume := it.TotalVolume()
		cells := []interface{}{
			it.Name, it.Category, it.OnHand, it.UnitSize, it.UnitType,
			volume, it.ReorderThreshold, it.Project,
		}
		cell := fmt.Sprintf("A%d", row)
		if err := f.SetSheetRow(itemsSheet, cell, &cells); err != nil {
			return "", fmt.Errorf("export: write row %d: %w", row, err)
		}
		totalOnHand = totalOnHand.Add(decimal.NewFromFloat(it.OnHand))
		totalVolume = totalVolume.Add(decimal.NewFromFloat(volume))
		row++
	}
	totals := []interface{}{"TOTAL", "", totalOnHand.String(), "", "", totalVolume.String(), "", ""}
	if err := f.SetSheetRow(itemsSheet, fmt.Sprintf("A%d", row), &totals); err != nil {
		return "", fmt.Errorf("export: write totals: %w", err)
	}

	movSheet := "Movements"
	if _, err := f.NewSheet(movSheet); err != nil {
		return "", fmt.Errorf("export: add movements sheet: %w", err)
	}
	movHeaders := []interface{}{"Created At", "Name", "Type", "Quantity", "Unit", "Status", "Requested By", "Project", "Batch Id"}
	if err := f.SetSheetRow(movSheet, "A1", &movHeaders); err != nil {
		return "", fmt.Errorf("export: write movement header: %w", err)
	}
	row = 2
	for i := range movements {
		if row-1 > s.rowLimit {
			break
		}
		mv := &movements[i]
		cells := []interface{}{
			mv.Timestamp.Format("2006-01-02 15:04"), mv.ItemName, string(mv.Type),
			mv.Quantity, mv.Unit, string(mv.Status), mv.UserName, mv.Project, mv.BatchID,
		}
		if err := f.SetSheetRow(movSheet, fmt.Sprintf("A%d", row), &cells); err != nil {
			return "", fmt.Errorf("export: write movement row %d: %w", row, err)
		}
		row++
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return "", fmt.Errorf("export: render workbook: %w", err)
	}

	objectName := fmt.Sprintf("stock-report-%s.xlsx", time.Now().Format("2006-01-02-150405"))
	link, err := s.store.Upload(ctx, objectName, buf.Bytes(), xlsxContentType)
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}

	log.Info().Str("object", objectName).Int("items", len(items)).
		Int("movements", len(movements)).Msg("stock report exported")
	return link, nil
}

// LowStock implements ServiceInterface.LowStock
func (s *ReportService) LowStock(ctx context.Context) ([]string, error) {
	items, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	var low []string
	for i := range items {
		if items[i].NeedsReorder() {
			low = append(low, fmt.Sprintf("%s (%.4g %s left)",
				items[i].Name, items[i].OnHand, items[i].UnitType))
		}
	}
	return low, nil
}
