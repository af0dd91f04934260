package approval_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitestock-backend/internal/domains/approval"
	catalogmodel "sitestock-backend/internal/domains/catalog/model"
	catalogservice "sitestock-backend/internal/domains/catalog/service"
	"sitestock-backend/internal/domains/duplicate"
	"sitestock-backend/internal/domains/movement/model"
	"sitestock-backend/internal/domains/movement/service"
)

type fakeCatalog struct {
	items    map[string]catalogmodel.Item
	failSave map[string]error

	// Optional gates to hold a Save mid-flight.
	saveStarted chan struct{}
	saveGate    chan struct{}
}

func newFakeCatalog(items ...catalogmodel.Item) *fakeCatalog {
	f := &fakeCatalog{items: map[string]catalogmodel.Item{}, failSave: map[string]error{}}
	for _, it := range items {
		f.items[strings.ToLower(it.Name)] = it
	}
	return f
}

func (f *fakeCatalog) Snapshot(ctx context.Context) ([]catalogmodel.Item, error) { return nil, nil }
func (f *fakeCatalog) InvalidateSnapshot()                                       {}

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
	f.items[strings.ToLower(name)] = *created
	return created, true, nil
}

func (f *fakeCatalog) Save(ctx context.Context, item *catalogmodel.Item) error {
	if f.saveStarted != nil {
		f.saveStarted <- struct{}{}
	}
	if f.saveGate != nil {
		<-f.saveGate
	}
	if err := f.failSave[strings.ToLower(item.Name)]; err != nil {
		return err
	}
	f.items[strings.ToLower(item.Name)] = *item
	return nil
}

func (f *fakeCatalog) Search(ctx context.Context, query string) ([]catalogservice.SearchResult, error) {
	return nil, nil
}

type fakeMovements struct {
	rows []model.StockMovement
}

func (f *fakeMovements) CreateMovement(ctx context.Context, mv *model.StockMovement) error {
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
	return nil
}

var staff = service.Submitter{UserID: 7, Name: "Trevor"}
var admin = service.Submitter{UserID: 1, Name: "Site Boss", IsAdmin: true}

func newController(catalog *fakeCatalog) (*approval.Controller, *fakeMovements) {
	journal := &fakeMovements{}
	exec := service.NewExecutor(catalog, journal)
	return approval.NewController(service.NewBatchProcessor(exec, model.LargeQtySoftLimit), exec, journal), journal
}

func inflow(name string, qty float64) model.StockMovement {
	return model.StockMovement{
		ItemName: name, Type: model.MovementIn, Quantity: qty, Unit: "bag",
		SignedBaseQuantity: qty, Status: model.StatusRequested,
		Project: "Bridge", Timestamp: time.Now(),
	}
}

func TestStageApproveRemovesBatch(t *testing.T) {
	catalog := newFakeCatalog()
	ctrl, journal := newController(catalog)

	batchID := ctrl.Stage([]model.StockMovement{inflow("cement 50kg", 10)}, staff, 42,
		map[string]float64{"cement 50kg": 0})

	staged, ok := ctrl.Get(batchID)
	require.True(t, ok)
	assert.Equal(t, approval.StatusPending, staged.Status)
	assert.Equal(t, int64(42), staged.ChatID)

	result, err := ctrl.Approve(context.Background(), batchID, admin)
	require.NoError(t, err)
	assert.Len(t, result.Successful, 1)
	assert.Equal(t, 0.0, result.BeforeLevels["cement 50kg"])
	assert.Equal(t, 10.0, result.AfterLevels["cement 50kg"])

	_, ok = ctrl.Get(batchID)
	assert.False(t, ok, "approved batch must leave the pending map")
	require.Len(t, journal.rows, 1)
	assert.Equal(t, model.StatusPosted, journal.rows[0].Status)
}

func TestApproveRequiresAdmin(t *testing.T) {
	ctrl, _ := newController(newFakeCatalog())
	batchID := ctrl.Stage([]model.StockMovement{inflow("cement 50kg", 10)}, staff, 42, nil)

	_, err := ctrl.Approve(context.Background(), batchID, staff)
	assert.ErrorIs(t, err, approval.ErrNotAdmin)

	_, ok := ctrl.Get(batchID)
	assert.True(t, ok, "denied approval must not change state")
}

func TestApproveUnknownBatch(t *testing.T) {
	ctrl, _ := newController(newFakeCatalog())

	_, err := ctrl.Approve(context.Background(), "nope", admin)
	assert.ErrorIs(t, err, approval.ErrBatchNotFound)
}

func TestRejectLeavesCatalogueUntouched(t *testing.T) {
	catalog := newFakeCatalog(catalogmodel.Item{
		ID: "rec1", Name: "Cement 50kg", OnHand: 25, UnitSize: 50, UnitType: "kg", IsActive: true,
	})
	ctrl, journal := newController(catalog)
	batchID := ctrl.Stage([]model.StockMovement{inflow("Cement 50kg", 10)}, staff, 42, nil)

	batch, err := ctrl.Reject(batchID, admin)
	require.NoError(t, err)
	assert.Equal(t, approval.StatusRejected, batch.Status)

	_, ok := ctrl.Get(batchID)
	assert.False(t, ok)
	assert.Equal(t, 25.0, catalog.items["cement 50kg"].OnHand)
	assert.Empty(t, journal.rows)
}

func TestConcurrentApproveAppliesOnce(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.saveStarted = make(chan struct{}, 1)
	catalog.saveGate = make(chan struct{})
	ctrl, journal := newController(catalog)
	batchID := ctrl.Stage([]model.StockMovement{inflow("cement 50kg", 10)}, staff, 42, nil)

	done := make(chan error, 1)
	go func() {
		_, err := ctrl.Approve(context.Background(), batchID, admin)
		done <- err
	}()

	// Hold the first approval mid-write, then race a second one in.
	<-catalog.saveStarted
	_, err := ctrl.Approve(context.Background(), batchID, admin)
	assert.ErrorIs(t, err, approval.ErrBatchNotFound,
		"a batch being executed must not be approvable again")

	close(catalog.saveGate)
	require.NoError(t, <-done)

	assert.Equal(t, 10.0, catalog.items["cement 50kg"].OnHand, "stock applied exactly once")
	require.Len(t, journal.rows, 1)
	assert.Equal(t, model.StatusPosted, journal.rows[0].Status)
}

func TestApproveRetainsBatchWhenNothingPosted(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.failSave["cement 50kg"] = catalogmodel.ErrStoreUnavailable
	ctrl, _ := newController(catalog)
	batchID := ctrl.Stage([]model.StockMovement{inflow("cement 50kg", 10)}, staff, 42, nil)

	result, err := ctrl.Approve(context.Background(), batchID, admin)
	require.NoError(t, err)
	assert.Empty(t, result.Successful)

	_, ok := ctrl.Get(batchID)
	assert.True(t, ok, "batch with zero posts after a store failure stays pending for retry")
}

func TestVoidPostedMovement(t *testing.T) {
	catalog := newFakeCatalog()
	ctrl, journal := newController(catalog)
	batchID := ctrl.Stage([]model.StockMovement{inflow("cement 50kg", 10)}, staff, 42, nil)

	_, err := ctrl.Approve(context.Background(), batchID, admin)
	require.NoError(t, err)
	require.Len(t, journal.rows, 1)

	err = ctrl.Void(context.Background(), batchID, journal.rows[0].ID, admin)
	require.NoError(t, err)
	assert.Equal(t, model.StatusVoided, journal.rows[0].Status)
	assert.Equal(t, 0.0, catalog.items["cement 50kg"].OnHand)

	err = ctrl.Void(context.Background(), batchID, journal.rows[0].ID, admin)
	assert.Error(t, err, "voiding twice must fail")
}

func TestSweepExpired(t *testing.T) {
	ctrl, _ := newController(newFakeCatalog())
	ctrl.Stage([]model.StockMovement{inflow("cement 50kg", 10)}, staff, 42, nil)

	assert.Zero(t, ctrl.SweepExpired(time.Hour))
	assert.Equal(t, 1, ctrl.SweepExpired(0))
	assert.Empty(t, ctrl.Pending())
}

func duplicateMatch(entered, existing string) duplicate.Match {
	return duplicate.Match{
		Candidate: inflow(entered, 5),
		Existing:  catalogmodel.Item{ID: "rec1", Name: existing, OnHand: 25},
		Score:     0.85,
		Kind:      duplicate.KindSimilar,
	}
}

func TestDuplicateDialogueStepwise(t *testing.T) {
	ctrl, _ := newController(newFakeCatalog())
	ctrl.StageDuplicates(42, model.MovementIn, []duplicate.Match{
		duplicateMatch("portland cement 50kg", "Cement 50kg"),
		duplicateMatch("white paint 5l", "Paint white 5l"),
	}, staff)

	done, _, err := ctrl.ResolveDuplicate(42, 0, approval.ActionConfirm)
	require.NoError(t, err)
	assert.False(t, done)

	done, movements, err := ctrl.ResolveDuplicate(42, 1, approval.ActionCancel)
	require.NoError(t, err)
	assert.True(t, done)
	require.Len(t, movements, 1)
	assert.Equal(t, "Cement 50kg", movements[0].ItemName, "confirm merges onto the canonical name")

	_, ok := ctrl.GetDuplicates(42)
	assert.False(t, ok, "resolved dialogue must be removed")
}

func TestDuplicateDialogueCreateNewKeepsEnteredName(t *testing.T) {
	ctrl, _ := newController(newFakeCatalog())
	ctrl.StageDuplicates(42, model.MovementIn, []duplicate.Match{
		duplicateMatch("portland cement 50kg", "Cement 50kg"),
	}, staff)

	done, movements, err := ctrl.ResolveDuplicate(42, 0, approval.ActionCreateNew)
	require.NoError(t, err)
	assert.True(t, done)
	require.Len(t, movements, 1)
	assert.Equal(t, "portland cement 50kg", movements[0].ItemName)
}

func TestDuplicateDialogueBulkActions(t *testing.T) {
	ctrl, _ := newController(newFakeCatalog())
	ctrl.StageDuplicates(42, model.MovementIn, []duplicate.Match{
		duplicateMatch("portland cement 50kg", "Cement 50kg"),
		duplicateMatch("white paint 5l", "Paint white 5l"),
	}, staff)

	movements, err := ctrl.ResolveAllDuplicates(42, approval.ActionConfirm)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, "Cement 50kg", movements[0].ItemName)
	assert.Equal(t, "Paint white 5l", movements[1].ItemName)

	_, err = ctrl.ResolveAllDuplicates(42, approval.ActionCancel)
	assert.ErrorIs(t, err, approval.ErrNoPendingDuplicates)
}

func TestResolveDuplicateErrors(t *testing.T) {
	ctrl, _ := newController(newFakeCatalog())

	_, _, err := ctrl.ResolveDuplicate(42, 0, approval.ActionConfirm)
	assert.ErrorIs(t, err, approval.ErrNoPendingDuplicates)

	ctrl.StageDuplicates(42, model.MovementIn, []duplicate.Match{
		duplicateMatch("portland cement 50kg", "Cement 50kg"),
	}, staff)

	_, _, err = ctrl.ResolveDuplicate(42, 5, approval.ActionConfirm)
	assert.ErrorIs(t, err, approval.ErrDuplicateIndex)
}
