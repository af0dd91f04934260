package service_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogmodel "sitestock-backend/internal/domains/catalog/model"
	catalogservice "sitestock-backend/internal/domains/catalog/service"
	"sitestock-backend/internal/domains/movement/model"
	"sitestock-backend/internal/domains/movement/service"
	"sitestock-backend/internal/shared/apperrors"
)

// fakeCatalog is an in-memory catalogue with per-item save failure injection.
type fakeCatalog struct {
	items    map[string]catalogmodel.Item
	failSave map[string]error
}

func newFakeCatalog(items ...catalogmodel.Item) *fakeCatalog {
	f := &fakeCatalog{
		items:    make(map[string]catalogmodel.Item),
		failSave: make(map[string]error),
	}
	for _, it := range items {
		f.items[strings.ToLower(it.Name)] = it
	}
	return f
}

func (f *fakeCatalog) Snapshot(ctx context.Context) ([]catalogmodel.Item, error) {
	var out []catalogmodel.Item
	for _, it := range f.items {
		out = append(out, it)
	}
	return out, nil
}

func (f *fakeCatalog) InvalidateSnapshot() {}

func (f *fakeCatalog) GetByName(ctx context.Context, name string) (*catalogmodel.Item, error) {
	if it, ok := f.items[strings.ToLower(name)]; ok {
		copied := it
		return &copied, nil
	}
	return nil, catalogmodel.NewItemNotFoundError(name)
}

func (f *fakeCatalog) GetOrCreate(ctx context.Context, name string) (*catalogmodel.Item, bool, error) {
	if it, err := f.GetByName(ctx, name); err == nil {
		return it, false, nil
	}
	created := catalogmodel.NewItemFromName(name)
	created.ID = fmt.Sprintf("rec%d", len(f.items)+1)
	f.items[strings.ToLower(name)] = *created
	return created, true, nil
}

func (f *fakeCatalog) Save(ctx context.Context, item *catalogmodel.Item) error {
	if err := f.failSave[strings.ToLower(item.Name)]; err != nil {
		return err
	}
	f.items[strings.ToLower(item.Name)] = *item
	return nil
}

func (f *fakeCatalog) Search(ctx context.Context, query string) ([]catalogservice.SearchResult, error) {
	return nil, nil
}

func (f *fakeCatalog) onHand(name string) float64 {
	return f.items[strings.ToLower(name)].OnHand
}

// fakeMovements journals rows in memory.
type fakeMovements struct {
	rows       []model.StockMovement
	stocktakes []model.InventoryStocktake
	createErr  error
}

func (f *fakeMovements) CreateMovement(ctx context.Context, mv *model.StockMovement) error {
	if f.createErr != nil {
		return f.createErr
	}
	mv.ID = fmt.Sprintf("m%d", len(f.rows)+1)
	f.rows = append(f.rows, *mv)
	return nil
}

func (f *fakeMovements) UpdateStatus(ctx context.Context, id string, status model.Status) error {
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].Status = status
			return nil
		}
	}
	return fmt.Errorf("movement %s: not found", id)
}

func (f *fakeMovements) ListByBatch(ctx context.Context, batchID string) ([]model.StockMovement, error) {
	var out []model.StockMovement
	for _, mv := range f.rows {
		if mv.BatchID == batchID {
			out = append(out, mv)
		}
	}
	return out, nil
}

func (f *fakeMovements) ListSince(ctx context.Context, since time.Time) ([]model.StockMovement, error) {
	return f.rows, nil
}

func (f *fakeMovements) CreateStocktake(ctx context.Context, st *model.InventoryStocktake) error {
	f.stocktakes = append(f.stocktakes, *st)
	return nil
}

func movement(t model.MovementType, name string, qty float64, unit string) model.StockMovement {
	return model.StockMovement{
		ItemName:           name,
		Type:               t,
		Quantity:           qty,
		Unit:               unit,
		SignedBaseQuantity: model.Sign(t, qty),
		Status:             model.StatusRequested,
		Project:            "Bridge",
		Timestamp:          time.Now(),
	}
}

var staff = service.Submitter{UserID: 7, Name: "Trevor"}
var admin = service.Submitter{UserID: 1, Name: "Site Boss", IsAdmin: true}

func TestExecuteInflowAutoCreates(t *testing.T) {
	catalog := newFakeCatalog()
	journal := &fakeMovements{}
	exec := service.NewExecutor(catalog, journal)

	mv := movement(model.MovementIn, "cement 50kg", 10, "bag")
	item, execErr := exec.Execute(context.Background(), &mv, staff)

	require.Nil(t, execErr)
	assert.Equal(t, 10.0, item.OnHand)
	assert.Equal(t, 50.0, item.UnitSize)
	assert.Equal(t, "kg", item.UnitType)
	assert.Equal(t, "Cement", item.Category)
	assert.Contains(t, item.Project, "Bridge")

	assert.Equal(t, model.StatusPosted, mv.Status)
	assert.Equal(t, "Cement", mv.Category)
	assert.Equal(t, "Trevor", mv.UserName)
	require.Len(t, journal.rows, 1)
	assert.Equal(t, 10.0, catalog.onHand("cement 50kg"))
}

func TestExecuteOutflowInsufficientStockForStaff(t *testing.T) {
	catalog := newFakeCatalog(catalogmodel.Item{
		ID: "rec1", Name: "Steel 12mm", OnHand: 5, UnitSize: 1, UnitType: "piece", IsActive: true,
	})
	journal := &fakeMovements{}
	exec := service.NewExecutor(catalog, journal)

	mv := movement(model.MovementOut, "Steel 12mm", 20, "piece")
	_, execErr := exec.Execute(context.Background(), &mv, staff)

	require.NotNil(t, execErr)
	assert.Contains(t, execErr.Message, "insufficient stock")
	assert.Equal(t, apperrors.SeverityError, execErr.Severity)
	assert.Equal(t, 5.0, catalog.onHand("Steel 12mm"), "stock must be untouched")
	assert.Empty(t, journal.rows)
}

func TestExecuteOutflowAdminOverride(t *testing.T) {
	catalog := newFakeCatalog(catalogmodel.Item{
		ID: "rec1", Name: "Steel 12mm", OnHand: 5, UnitSize: 1, UnitType: "piece", IsActive: true,
	})
	journal := &fakeMovements{}
	exec := service.NewExecutor(catalog, journal)

	mv := movement(model.MovementOut, "Steel 12mm", 20, "piece")
	item, execErr := exec.Execute(context.Background(), &mv, admin)

	require.Nil(t, execErr)
	assert.Equal(t, -15.0, item.OnHand)
	require.Len(t, journal.rows, 1)
	assert.Equal(t, -20.0, journal.rows[0].SignedBaseQuantity)
}

func TestExecuteOutflowUnknownItem(t *testing.T) {
	exec := service.NewExecutor(newFakeCatalog(), &fakeMovements{})

	mv := movement(model.MovementOut, "gravel", 5, "bag")
	_, execErr := exec.Execute(context.Background(), &mv, staff)

	require.NotNil(t, execErr)
	assert.Contains(t, execErr.Message, "does not exist")
}

func TestExecuteAdjustSigned(t *testing.T) {
	catalog := newFakeCatalog(catalogmodel.Item{
		ID: "rec1", Name: "Cement 50kg", OnHand: 30, UnitSize: 50, UnitType: "kg", IsActive: true,
	})
	exec := service.NewExecutor(catalog, &fakeMovements{})

	mv := movement(model.MovementAdjust, "Cement 50kg", -5, "piece")
	_, execErr := exec.Execute(context.Background(), &mv, staff)

	require.Nil(t, execErr)
	assert.Equal(t, 25.0, catalog.onHand("Cement 50kg"))
}

func TestProcessBatchSuccess(t *testing.T) {
	catalog := newFakeCatalog(catalogmodel.Item{
		ID: "rec1", Name: "Cement 50kg", OnHand: 25, UnitSize: 50, UnitType: "kg", IsActive: true,
	})
	journal := &fakeMovements{}
	processor := service.NewBatchProcessor(service.NewExecutor(catalog, journal), model.LargeQtySoftLimit)

	movements := []model.StockMovement{
		movement(model.MovementIn, "Cement 50kg", 10, "bag"),
		movement(model.MovementIn, "sand", 5, "bag"),
	}
	result := processor.Process(context.Background(), "batch-1", movements, staff)

	assert.Equal(t, 2, result.Total)
	assert.Len(t, result.Successful, 2)
	assert.Empty(t, result.Failed)
	assert.Equal(t, 100.0, result.SuccessRate())
	assert.False(t, result.RolledBack)

	assert.Equal(t, 25.0, result.BeforeLevels["Cement 50kg"])
	assert.Equal(t, 35.0, result.AfterLevels["Cement 50kg"])
	assert.Equal(t, 0.0, result.BeforeLevels["sand"])
	assert.Equal(t, 5.0, result.AfterLevels["sand"])
	assert.Contains(t, result.Summary, "2/2")
	require.Len(t, journal.rows, 2)
	assert.Equal(t, "batch-1", journal.rows[0].BatchID)
}

func TestProcessBatchRollsBackOnCriticalFailure(t *testing.T) {
	catalog := newFakeCatalog(catalogmodel.Item{
		ID: "rec1", Name: "Cement 50kg", OnHand: 25, UnitSize: 50, UnitType: "kg", IsActive: true,
	})
	catalog.failSave["bad item"] = catalogmodel.ErrStoreUnavailable
	journal := &fakeMovements{}
	processor := service.NewBatchProcessor(service.NewExecutor(catalog, journal), model.LargeQtySoftLimit)

	movements := []model.StockMovement{
		movement(model.MovementIn, "Cement 50kg", 10, "bag"),
		movement(model.MovementIn, "bad item", 5, "bag"),
	}
	result := processor.Process(context.Background(), "batch-2", movements, staff)

	assert.True(t, result.RolledBack)
	assert.False(t, result.RollbackFailed)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, apperrors.SeverityCritical, result.Failed[0].Severity)

	assert.Equal(t, 25.0, catalog.onHand("Cement 50kg"), "inflow must be compensated")
	require.Len(t, journal.rows, 1)
	assert.Equal(t, model.StatusVoided, journal.rows[0].Status)
	assert.Contains(t, result.Summary, "rolled back")
}

func TestProcessBatchPartialFailureWithoutRollback(t *testing.T) {
	catalog := newFakeCatalog(catalogmodel.Item{
		ID: "rec1", Name: "Steel 12mm", OnHand: 5, UnitSize: 1, UnitType: "piece", IsActive: true,
	})
	journal := &fakeMovements{}
	processor := service.NewBatchProcessor(service.NewExecutor(catalog, journal), model.LargeQtySoftLimit)

	movements := []model.StockMovement{
		movement(model.MovementOut, "Steel 12mm", 3, "piece"),
		movement(model.MovementOut, "Steel 12mm", 20, "piece"),
	}
	result := processor.Process(context.Background(), "batch-3", movements, staff)

	// Insufficient stock is a plain validation error, not a rollback trigger.
	assert.False(t, result.RolledBack)
	assert.Len(t, result.Successful, 1)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, 50.0, result.SuccessRate())
	assert.Equal(t, 2.0, catalog.onHand("Steel 12mm"))
}

func TestProcessBatchFlagsLargeQuantities(t *testing.T) {
	catalog := newFakeCatalog(
		catalogmodel.Item{
			ID: "rec1", Name: "Sand", OnHand: 1000, UnitSize: 1, UnitType: "ton",
			LargeQtyThreshold: 100, IsActive: true,
		},
		catalogmodel.Item{
			ID: "rec2", Name: "Cement 50kg", OnHand: 1000, UnitSize: 50, UnitType: "kg", IsActive: true,
		},
	)
	journal := &fakeMovements{}
	processor := service.NewBatchProcessor(service.NewExecutor(catalog, journal), 500)

	movements := []model.StockMovement{
		movement(model.MovementIn, "Sand", 150, "ton"),        // over the item's own threshold
		movement(model.MovementIn, "Cement 50kg", 600, "bag"), // over the configured default
		movement(model.MovementIn, "Cement 50kg", 10, "bag"),
	}
	result := processor.Process(context.Background(), "batch-4", movements, staff)

	require.Empty(t, result.Failed)
	require.Len(t, result.Warnings, 2)
	assert.Contains(t, result.Warnings[0], "Sand")
	assert.Contains(t, result.Warnings[0], "100")
	assert.Contains(t, result.Warnings[1], "Cement 50kg")
	assert.Contains(t, result.Warnings[1], "500")
}

func TestStocktakeCumulative(t *testing.T) {
	catalog := newFakeCatalog(catalogmodel.Item{
		ID: "rec1", Name: "Paint 20ltrs", OnHand: 30, UnitSize: 20, UnitType: "ltrs", IsActive: true,
	})
	journal := &fakeMovements{}
	svc := service.NewStocktakeService(catalog, journal)

	parsed := &model.ParsedStocktake{
		LoggedBy: []string{"Trevor"},
		Date:     "2026-08-24",
		Entries: []model.StocktakeEntry{
			{ItemName: "Paint 20ltrs", CountedQty: 15, LineNumber: 2},
		},
	}
	result := svc.Apply(context.Background(), parsed)

	require.Empty(t, result.Failed)
	require.Len(t, result.Applied, 1)

	st := result.Applied[0]
	assert.Equal(t, 30.0, st.PreviousOnHand)
	assert.Equal(t, 15.0, st.CountedQty)
	assert.Equal(t, 45.0, st.NewOnHand)
	assert.Equal(t, -15.0, st.Discrepancy)
	assert.Equal(t, "Trevor", st.AppliedBy)
	assert.Equal(t, "2026-08-24", st.Date)

	assert.Equal(t, 45.0, catalog.onHand("Paint 20ltrs"))
	updated := catalog.items["paint 20ltrs"]
	require.NotNil(t, updated.LastStocktakeDate)
	assert.Equal(t, "Trevor", updated.LastStocktakeBy)
	require.Len(t, journal.stocktakes, 1)
}
