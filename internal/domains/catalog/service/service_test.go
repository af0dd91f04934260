package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitestock-backend/internal/domains/catalog/model"
)

// fakeRepo is an in-memory catalogue store that can be switched into a
// failing mode to exercise stale-snapshot behavior.
type fakeRepo struct {
	items     map[string]*model.Item
	listCalls int
	failList  bool
	failGet   bool
	nextID    int
}

func newFakeRepo(items ...*model.Item) *fakeRepo {
	r := &fakeRepo{items: make(map[string]*model.Item)}
	for _, it := range items {
		r.nextID++
		it.ID = fmt.Sprintf("rec%03d", r.nextID)
		r.items[strings.ToLower(it.Name)] = it
	}
	return r
}

func (r *fakeRepo) ListItems(ctx context.Context) ([]model.Item, error) {
	r.listCalls++
	if r.failList {
		return nil, model.ErrStoreUnavailable
	}
	out := make([]model.Item, 0, len(r.items))
	for _, it := range r.items {
		out = append(out, *it)
	}
	return out, nil
}

func (r *fakeRepo) GetByName(ctx context.Context, name string) (*model.Item, error) {
	if r.failGet {
		return nil, model.ErrStoreUnavailable
	}
	it, ok := r.items[strings.ToLower(name)]
	if !ok {
		return nil, model.NewItemNotFoundError(name)
	}
	copied := *it
	return &copied, nil
}

func (r *fakeRepo) Create(ctx context.Context, item *model.Item) error {
	key := strings.ToLower(item.Name)
	if _, ok := r.items[key]; ok {
		return model.ErrItemAlreadyExists
	}
	r.nextID++
	item.ID = fmt.Sprintf("rec%03d", r.nextID)
	copied := *item
	r.items[key] = &copied
	return nil
}

func (r *fakeRepo) Update(ctx context.Context, item *model.Item) error {
	for key, existing := range r.items {
		if existing.ID == item.ID {
			copied := *item
			r.items[key] = &copied
			return nil
		}
	}
	return model.NewItemNotFoundError(item.Name)
}

func newTestService(repo *fakeRepo) (ServiceInterface, *SnapshotCache) {
	snapshot := NewSnapshotCache(repo, time.Minute)
	return NewService(repo, snapshot), snapshot
}

func TestGetOrCreateExisting(t *testing.T) {
	repo := newFakeRepo(&model.Item{Name: "Cement 50kg", OnHand: 10, UnitSize: 50, UnitType: "kg", IsActive: true})
	svc, _ := newTestService(repo)

	item, created, err := svc.GetOrCreate(context.Background(), "  cement 50kg ")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Cement 50kg", item.Name)
	assert.Equal(t, 10.0, item.OnHand)
}

func TestGetOrCreateNewItemDerivesMetadata(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	item, created, err := svc.GetOrCreate(context.Background(), "Paint 20ltrs")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Paint 20ltrs", item.Name)
	assert.Equal(t, "Paint", item.Category)
	assert.Equal(t, 20.0, item.UnitSize)
	assert.Equal(t, "ltrs", item.UnitType)
	assert.Zero(t, item.OnHand)
	assert.True(t, item.IsActive)

	// A second call finds the stored item instead of creating again.
	again, created, err := svc.GetOrCreate(context.Background(), "paint 20ltrs")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, item.ID, again.ID)
}

func TestGetOrCreateThicknessNameDefaultsToPieces(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	item, created, err := svc.GetOrCreate(context.Background(), "Steel bar 12mm")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Steel", item.Category)
	assert.Equal(t, 1.0, item.UnitSize)
	assert.Equal(t, "piece", item.UnitType)
}

func TestSnapshotCachesUntilInvalidated(t *testing.T) {
	repo := newFakeRepo(&model.Item{Name: "Cement 50kg", IsActive: true})
	svc, _ := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	_, err = svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls, "fresh snapshot served from memory")

	svc.InvalidateSnapshot()
	_, err = svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls)
}

func TestSnapshotServesStaleOnStoreFailure(t *testing.T) {
	repo := newFakeRepo(&model.Item{Name: "Cement 50kg", IsActive: true})
	snapshot := NewSnapshotCache(repo, time.Minute)
	ctx := context.Background()

	items, err := snapshot.Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)

	repo.failList = true
	stale, err := snapshot.Refresh(ctx)
	require.NoError(t, err, "stale snapshot papers over a store outage")
	assert.Len(t, stale, 1)

	// With no snapshot at all the failure surfaces.
	snapshot.Invalidate()
	_, err = snapshot.Items(ctx)
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)
}

func TestSearchRanksAndFiltersResults(t *testing.T) {
	repo := newFakeRepo(
		&model.Item{Name: "Cement 50kg", IsActive: true},
		&model.Item{Name: "Portland Cement 50kg", IsActive: true},
		&model.Item{Name: "Sand", IsActive: true},
	)
	svc, _ := newTestService(repo)

	results, err := svc.Search(context.Background(), "cement 50kg")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Cement 50kg", results[0].Item.Name)
	assert.Equal(t, 1.0, results[0].Score)
	assert.Equal(t, "Portland Cement 50kg", results[1].Item.Name)

	// Substring fallback surfaces prefix queries the keyword metric misses.
	results, err = svc.Search(context.Background(), "cem")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.Contains(t, strings.ToLower(r.Item.Name), "cem")
	}
}

func TestSaveInvalidatesSnapshot(t *testing.T) {
	repo := newFakeRepo(&model.Item{Name: "Cement 50kg", OnHand: 10, IsActive: true})
	svc, _ := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Snapshot(ctx)
	require.NoError(t, err)

	item, err := svc.GetByName(ctx, "Cement 50kg")
	require.NoError(t, err)
	item.OnHand = 25
	require.NoError(t, svc.Save(ctx, item))

	items, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 25.0, items[0].OnHand)
}

func TestGetOrCreatePropagatesStoreError(t *testing.T) {
	repo := newFakeRepo()
	repo.failGet = true
	svc, _ := newTestService(repo)

	_, _, err := svc.GetOrCreate(context.Background(), "Cement 50kg")
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)
}
