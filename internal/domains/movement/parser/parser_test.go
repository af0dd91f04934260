package parser_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitestock-backend/internal/domains/movement/model"
	"sitestock-backend/internal/domains/movement/parser"
	"sitestock-backend/internal/shared/apperrors"
)

func TestParseMovementSingleEntry(t *testing.T) {
	batch := parser.ParseMovement(model.MovementIn, "project: Bridge A, cement 50kg, 10 bags")

	require.True(t, batch.IsValid(), "errors: %v", batch.Errors)
	assert.Equal(t, model.FormatSingle, batch.Format)
	require.Len(t, batch.Movements, 1)

	mv := batch.Movements[0]
	assert.Equal(t, "cement 50kg", mv.ItemName)
	assert.Equal(t, 10.0, mv.Quantity)
	assert.Equal(t, "bag", mv.Unit)
	assert.Equal(t, 10.0, mv.SignedBaseQuantity)
	assert.Equal(t, "Bridge A", mv.Project)
	assert.Equal(t, model.NotDescribed, mv.Driver)
	assert.Equal(t, "Purchase", mv.Reason)
	assert.Equal(t, model.StatusRequested, mv.Status)
}

func TestParseMovementSegmented(t *testing.T) {
	body := strings.Join([]string{
		"project: Tower B",
		"-batch 1-",
		"driver: Tuan",
		"sand, 5 bags",
		"steel bar 12mm, 20 pieces",
		"-batch 2-",
		"from: warehouse 2",
		"cement 50kg, 3 bags",
	}, "\n")

	batch := parser.ParseMovement(model.MovementOut, body)

	require.True(t, batch.IsValid(), "errors: %v", batch.Errors)
	assert.Equal(t, model.FormatSegmented, batch.Format)
	assert.Equal(t, 2, batch.Segments)
	require.Len(t, batch.Movements, 3)

	sand := batch.Movements[0]
	assert.Equal(t, "sand", sand.ItemName)
	assert.Equal(t, -5.0, sand.SignedBaseQuantity)
	assert.Equal(t, "Tuan", sand.Driver)
	assert.Equal(t, "Tower B", sand.Project)
	assert.Equal(t, model.ExternalDestination, sand.ToLocation)
	assert.Equal(t, 1, sand.BatchNumber)

	steel := batch.Movements[1]
	assert.Equal(t, "steel bar 12mm", steel.ItemName)
	assert.Equal(t, "piece", steel.Unit)

	cement := batch.Movements[2]
	assert.Equal(t, 2, cement.BatchNumber)
	assert.Equal(t, "warehouse 2", cement.FromLocation)
	assert.Equal(t, model.NotDescribed, cement.Driver, "driver must not leak across segments")
}

func TestParseMovementSemicolonSeparated(t *testing.T) {
	batch := parser.ParseMovement(model.MovementIn, "project: Depot, cement, 2 bags; sand, 3 bags")

	require.True(t, batch.IsValid(), "errors: %v", batch.Errors)
	assert.Equal(t, model.FormatFree, batch.Format)
	require.Len(t, batch.Movements, 2)
	assert.Equal(t, "Depot", batch.Movements[1].Project)
}

func TestParseMovementMixedTypesRejected(t *testing.T) {
	batch := parser.ParseMovement(model.MovementIn, "project: X\nin cement, 10 bags\nout sand, 5 bags")

	assert.False(t, batch.IsValid())
	require.NotEmpty(t, batch.Errors)
	assert.Contains(t, batch.Errors[0].Message, "differs from first entry type")
	assert.Equal(t, apperrors.CategoryValidation, batch.Errors[0].Category)
}

func TestParseMovementPerEntryOverrides(t *testing.T) {
	batch := parser.ParseMovement(model.MovementOut,
		"project: Tower B\nsand, 5 bags, to: site office, note: urgent\ncement, 2 bags")

	require.True(t, batch.IsValid(), "errors: %v", batch.Errors)
	require.Len(t, batch.Movements, 2)
	assert.Equal(t, "site office", batch.Movements[0].ToLocation)
	assert.Equal(t, "urgent", batch.Movements[0].Note)
	assert.Equal(t, model.ExternalDestination, batch.Movements[1].ToLocation)
}

func TestParseMovementValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		cmdType model.MovementType
		body    string
		wantMsg string
	}{
		{
			name:    "missing quantity",
			cmdType: model.MovementIn,
			body:    "project: X, cement",
			wantMsg: "missing quantity",
		},
		{
			name:    "missing project",
			cmdType: model.MovementIn,
			body:    "cement, 10 bags",
			wantMsg: "project is required",
		},
		{
			name:    "negative outflow",
			cmdType: model.MovementOut,
			body:    "project: X, cement, -5 bags",
			wantMsg: "quantity must be positive",
		},
		{
			name:    "zero adjustment",
			cmdType: model.MovementAdjust,
			body:    "project: X, cement, 0",
			wantMsg: "cannot be zero",
		},
		{
			name:    "empty command",
			cmdType: model.MovementIn,
			body:    "  \n# just a comment\n",
			wantMsg: "no entries found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch := parser.ParseMovement(tt.cmdType, tt.body)
			assert.False(t, batch.IsValid())
			require.NotEmpty(t, batch.Errors)

			found := false
			for _, e := range batch.Errors {
				if strings.Contains(e.Message, tt.wantMsg) {
					found = true
					assert.NotEmpty(t, e.Suggestion)
				}
			}
			assert.True(t, found, "no error containing %q in %v", tt.wantMsg, batch.Errors)
		})
	}
}

func TestParseMovementNegativeAdjustment(t *testing.T) {
	batch := parser.ParseMovement(model.MovementAdjust, "project: X, cement, -5")

	require.True(t, batch.IsValid(), "errors: %v", batch.Errors)
	require.Len(t, batch.Movements, 1)
	assert.Equal(t, -5.0, batch.Movements[0].Quantity)
	assert.Equal(t, -5.0, batch.Movements[0].SignedBaseQuantity)
	assert.Equal(t, "piece", batch.Movements[0].Unit)
	assert.Equal(t, "Adjustment", batch.Movements[0].Reason)
}

func TestParseMovementEntryLimit(t *testing.T) {
	var lines []string
	lines = append(lines, "project: X")
	for i := 0; i < model.MaxMovementEntries+1; i++ {
		lines = append(lines, fmt.Sprintf("item %d, 1 bag", i))
	}

	batch := parser.ParseMovement(model.MovementIn, strings.Join(lines, "\n"))

	assert.False(t, batch.IsValid())
	require.NotEmpty(t, batch.Errors)
	assert.Contains(t, batch.Errors[0].Message, "too many entries")
}

func TestParseMovementWarnings(t *testing.T) {
	batch := parser.ParseMovement(model.MovementIn,
		"project: X, cement, 20000 bags\ncement, 5 bags")

	require.True(t, batch.IsValid(), "errors: %v", batch.Errors)
	require.Len(t, batch.Warnings, 2)
	assert.Contains(t, batch.Warnings[0], "unusually large")
	assert.Contains(t, batch.Warnings[1], "more than once")
}

func TestParseMovementCommentsAndBlanksIgnored(t *testing.T) {
	batch := parser.ParseMovement(model.MovementIn,
		"project: X\n\n# morning delivery\ncement, 10 bags\n")

	require.True(t, batch.IsValid(), "errors: %v", batch.Errors)
	assert.Len(t, batch.Movements, 1)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "15/03/25", want: "2025-03-15"},
		{in: "5/3/25", want: "2025-03-05"},
		{in: "01/01/99", want: "1999-01-01"},
		{in: "29/02/24", want: "2024-02-29"},
		{in: "15/03/2025", want: "2025-03-15"},
		{in: "29/02/25", wantErr: true},
		{in: "31/04/25", wantErr: true},
		{in: "00/05/25", wantErr: true},
		{in: "15/13/25", wantErr: true},
		{in: "15-03-25", wantErr: true},
		{in: "yesterday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parser.ParseDate(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, model.ErrInvalidDate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseStocktake(t *testing.T) {
	body := strings.Join([]string{
		"logged by: An, Binh, date: 15/03/25, category: Electrical",
		"# counted rack A",
		"cable 2.5sqmm, 120 m",
		"",
		"cement 50kg, 15",
	}, "\n")

	st := parser.ParseStocktake(body)

	require.True(t, st.IsValid(), "errors: %v", st.Errors)
	assert.Equal(t, []string{"An", "Binh"}, st.LoggedBy)
	assert.Equal(t, "2025-03-15", st.Date)
	assert.Equal(t, "Electrical", st.Category)
	assert.Equal(t, 1, st.CommentLines)
	assert.Equal(t, 1, st.BlankLines)
	require.Len(t, st.Entries, 2)

	assert.Equal(t, "cable 2.5sqmm", st.Entries[0].ItemName)
	assert.Equal(t, 120.0, st.Entries[0].CountedQty)
	assert.Equal(t, "m", st.Entries[0].UnitPhrase)
	assert.Equal(t, "cement 50kg", st.Entries[1].ItemName)
}

func TestParseStocktakeDefaultsDateToToday(t *testing.T) {
	st := parser.ParseStocktake("logged by: An\ncement, 10")

	require.True(t, st.IsValid(), "errors: %v", st.Errors)
	assert.Equal(t, parser.TodayISO(), st.Date)
}

func TestParseStocktakeErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{
			name:    "missing header",
			body:    "cement, 5",
			wantMsg: "logged by",
		},
		{
			name:    "header without names",
			body:    "logged by: date: 15/03/25\ncement, 5",
			wantMsg: "at least one name",
		},
		{
			name:    "non numeric count",
			body:    "logged by: An\ncement, lots",
			wantMsg: "not a number",
		},
		{
			name:    "no counted items",
			body:    "logged by: An\n# nothing today",
			wantMsg: "no counted items",
		},
		{
			name:    "bad date",
			body:    "logged by: An, date: 31/02/25\ncement, 5",
			wantMsg: "invalid date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := parser.ParseStocktake(tt.body)
			assert.False(t, st.IsValid())
			require.NotEmpty(t, st.Errors)

			found := false
			for _, e := range st.Errors {
				if strings.Contains(e.Message, tt.wantMsg) {
					found = true
				}
			}
			assert.True(t, found, "no error containing %q in %v", tt.wantMsg, st.Errors)
		})
	}
}

func TestParseStocktakeDuplicateWarnsCumulative(t *testing.T) {
	st := parser.ParseStocktake("logged by: An\ncement 50kg, 10\ncement 50kg, 5")

	require.True(t, st.IsValid(), "errors: %v", st.Errors)
	require.Len(t, st.Entries, 2)
	require.Len(t, st.Warnings, 1)
	assert.Contains(t, st.Warnings[0], "cumulative")
}

func TestParseStocktakeEntryLimit(t *testing.T) {
	lines := []string{"logged by: An"}
	for i := 0; i <= model.MaxStocktakeEntries; i++ {
		lines = append(lines, fmt.Sprintf("item %d, 1", i))
	}

	st := parser.ParseStocktake(strings.Join(lines, "\n"))

	assert.False(t, st.IsValid())
	require.NotEmpty(t, st.Errors)
	assert.Contains(t, st.Errors[0].Message, "too many entries")
}
