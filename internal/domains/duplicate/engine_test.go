package duplicate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogmodel "sitestock-backend/internal/domains/catalog/model"
	"sitestock-backend/internal/domains/duplicate"
	"sitestock-backend/internal/domains/movement/model"
)

func snapshot() []catalogmodel.Item {
	return []catalogmodel.Item{
		{ID: "rec1", Name: "Cement 50kg", OnHand: 25, UnitSize: 50, UnitType: "kg"},
		{ID: "rec2", Name: "Steel bar 12mm", OnHand: 100, UnitSize: 1, UnitType: "piece"},
		{ID: "rec3", Name: "Paint white 5l", OnHand: 12, UnitSize: 5, UnitType: "l"},
	}
}

func batchOf(t model.MovementType, names ...string) *model.ParsedBatch {
	b := &model.ParsedBatch{Type: t}
	for _, n := range names {
		b.Movements = append(b.Movements, model.StockMovement{
			ItemName: n, Type: t, Quantity: 10, Unit: "bag",
		})
	}
	return b
}

func TestAnalyzeAutoMergesExact(t *testing.T) {
	batch := batchOf(model.MovementIn, "cement 50kg")

	a := duplicate.Analyze(batch, snapshot(), duplicate.DefaultPolicy())

	require.Len(t, a.AutoMerged, 1)
	assert.Equal(t, duplicate.KindExact, a.AutoMerged[0].Kind)
	assert.Equal(t, "Cement 50kg", a.AutoMerged[0].Existing.Name)
	assert.Empty(t, a.NeedsConfirm)
	assert.False(t, a.HasPendingConfirmations())

	// The entry is rewritten to the canonical catalogue name.
	assert.Equal(t, "Cement 50kg", batch.Movements[0].ItemName)
}

func TestAnalyzeSimilarNeedsConfirmation(t *testing.T) {
	batch := batchOf(model.MovementIn, "portland cement 50kg")

	a := duplicate.Analyze(batch, snapshot(), duplicate.DefaultPolicy())

	require.Len(t, a.NeedsConfirm, 1)
	assert.Equal(t, duplicate.KindSimilar, a.NeedsConfirm[0].Kind)
	assert.Equal(t, "Cement 50kg", a.NeedsConfirm[0].Existing.Name)
	assert.True(t, a.HasPendingConfirmations())
	assert.Empty(t, a.AutoMerged)

	// Name is untouched until the user decides.
	assert.Equal(t, "portland cement 50kg", batch.Movements[0].ItemName)
}

func TestAnalyzeFuzzyBecomesNewItemWithWarning(t *testing.T) {
	batch := batchOf(model.MovementIn, "cement 40kg")

	a := duplicate.Analyze(batch, snapshot(), duplicate.DefaultPolicy())

	assert.Empty(t, a.NeedsConfirm)
	require.Len(t, a.Matches, 1)
	assert.Equal(t, duplicate.KindFuzzy, a.Matches[0].Kind)
	assert.Equal(t, []int{0}, a.NewItems)
	require.NotEmpty(t, a.Warnings)
	assert.Contains(t, a.Warnings[0], "loosely resembles")
}

func TestAnalyzeNoMatchIsNewItem(t *testing.T) {
	batch := batchOf(model.MovementIn, "gravel")

	a := duplicate.Analyze(batch, snapshot(), duplicate.DefaultPolicy())

	assert.Empty(t, a.Matches)
	assert.Equal(t, []int{0}, a.NewItems)
	assert.Empty(t, a.Warnings)
}

func TestAnalyzeOutflowShortfall(t *testing.T) {
	batch := batchOf(model.MovementOut, "cement 50kg")
	batch.Movements[0].Quantity = 30

	a := duplicate.Analyze(batch, snapshot(), duplicate.DefaultPolicy())

	require.Len(t, a.AutoMerged, 1)
	assert.Equal(t, 5.0, a.AutoMerged[0].Shortfall)
	require.NotEmpty(t, a.Warnings)
	assert.Contains(t, a.Warnings[0], "exceeds on-hand")
}

func TestAnalyzeOutflowWithinStockHasNoShortfall(t *testing.T) {
	batch := batchOf(model.MovementOut, "cement 50kg")
	batch.Movements[0].Quantity = 20

	a := duplicate.Analyze(batch, snapshot(), duplicate.DefaultPolicy())

	require.Len(t, a.AutoMerged, 1)
	assert.Zero(t, a.AutoMerged[0].Shortfall)
	assert.Empty(t, a.Warnings)
}

func TestAnalyzeWithoutConfirmationPolicy(t *testing.T) {
	batch := batchOf(model.MovementIn, "portland cement 50kg")

	a := duplicate.Analyze(batch, snapshot(), duplicate.Policy{AutoMergeExact: true})

	assert.Empty(t, a.NeedsConfirm)
	assert.Equal(t, []int{0}, a.NewItems)
	require.NotEmpty(t, a.Warnings)
}
