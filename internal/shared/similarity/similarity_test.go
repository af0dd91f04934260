package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "cement 50kg", Normalize("  Cement   50KG "))
	assert.Equal(t, "angle iron 40x40", Normalize("Angle-Iron_40x40"))
	assert.Equal(t, "", Normalize("   "))
}

func TestScoreIdenticalNames(t *testing.T) {
	names := []string{
		"Cement 50kg",
		"Steel bar 12mm",
		"Binding Wire 2.5sqmm",
	}
	for _, name := range names {
		assert.Equal(t, 1.0, Score(name, name), name)
	}

	// Case and spacing do not matter.
	assert.Equal(t, 1.0, Score("Cement 50kg", "  cement   50KG"))
}

func TestScoreSymmetry(t *testing.T) {
	pairs := [][2]string{
		{"portland cement 50kg", "Cement 50kg"},
		{"cement 40kg", "Cement 50kg"},
		{"Steel bar 12mm", "steel rod 12mm"},
		{"Paint 20ltrs", "Sand"},
	}
	for _, p := range pairs {
		assert.Equal(t, Score(p[0], p[1]), Score(p[1], p[0]), "%s vs %s", p[0], p[1])
	}
}

func TestScoreBands(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{
			name: "extra brand word lands in similar band",
			a:    "portland cement 50kg",
			b:    "Cement 50kg",
			want: 0.85,
		},
		{
			name: "diverging quantity pins fuzzy floor",
			a:    "cement 40kg",
			b:    "Cement 50kg",
			want: 0.6,
		},
		{
			name: "unrelated names score zero",
			a:    "Cement 50kg",
			b:    "Sand",
			want: 0,
		},
		{
			name: "too many keyword differences score zero",
			a:    "steel angle bar 12mm",
			b:    "timber pole",
			want: 0,
		},
		{
			name: "empty name scores zero",
			a:    "",
			b:    "Cement 50kg",
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(tt.a, tt.b), 1e-9)
		})
	}
}

func TestScoreFirstKeywordBonus(t *testing.T) {
	// Same leading keyword, singular/plural unit word differs.
	withBonus := Score("cement bags 50kg", "cement bag 50kg")
	assert.InDelta(t, 0.95, withBonus, 1e-9)
	assert.GreaterOrEqual(t, withBonus, ExactThreshold)

	// Different leading keyword keeps the score in the similar band.
	withoutBonus := Score("portland cement 50kg", "Cement 50kg")
	assert.Less(t, withoutBonus, ExactThreshold)
	assert.GreaterOrEqual(t, withoutBonus, SimilarThreshold)
}

func TestExtractQuantity(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValue float64
		wantUnit  string
	}{
		{"glued unit", "cement 50kg", 50, "kg"},
		{"detached unit", "paint 20 ltrs", 20, "l"},
		{"decimal glued unit", "binding wire 2.5sqmm", 2.5, "sqmm"},
		{"thickness is not a quantity", "steel bar 12mm", 0, "piece"},
		{"bare number counts pieces", "hollow blocks 6", 6, "piece"},
		{"no number at all", "sand", 0, "piece"},
		{"unknown suffix skipped", "bolt m16", 0, "piece"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := ExtractQuantity(tt.input)
			assert.Equal(t, tt.wantValue, q.Value)
			assert.Equal(t, tt.wantUnit, q.Unit)
		})
	}
}

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"quantity token dropped", "Cement 50kg", []string{"cement"}},
		{"thickness descriptor kept", "Steel bar 12mm", []string{"steel", "bar", "12mm"}},
		{"decimal size survives as number", "Binding Wire 2.5sqmm", []string{"binding", "wire", "2.5"}},
		{"detached quantity dropped", "10 bags cement", []string{"cement"}},
		{"stopwords dropped", "paint for the gate", []string{"paint", "gate"}},
		{"duplicates collapsed", "pipe pipe elbow", []string{"pipe", "elbow"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractKeywords(tt.input))
		})
	}
}

func TestCanonicalUnit(t *testing.T) {
	for alias, canonical := range map[string]string{
		"bags": "bag", "pcs": "piece", "Ltrs": "l", "tonnes": "ton", "metres": "m",
	} {
		got, ok := CanonicalUnit(alias)
		assert.True(t, ok, alias)
		assert.Equal(t, canonical, got)
	}

	_, ok := CanonicalUnit("gate")
	assert.False(t, ok)

	assert.True(t, IsThicknessUnit("mm"))
	assert.False(t, IsThicknessUnit("kg"))
}
