package model

import (
	"strconv"
	"strings"
	"time"

	"sitestock-backend/internal/shared/similarity"
)

// Item is one catalogue entry. Identity is the case-insensitive name; the ID
// is whatever the backing store assigned (sheet record id or UUID string).
type Item struct {
	ID   string `db:"id"`
	Name string `db:"name"`

	// Stock levels. OnHand is in base units (pieces, bags, ...);
	// TotalVolume() derives unit_size * on_hand.
	OnHand   float64 `db:"on_hand"`
	UnitSize float64 `db:"unit_size"` // > 0, default 1
	UnitType string  `db:"unit_type"` // non-empty, default "piece"

	Category string `db:"category"`
	Location string `db:"location"`
	Project  string `db:"project"` // comma-joined list of projects that used the item

	// Thresholds. Zero means unset.
	ReorderThreshold  float64 `db:"reorder_threshold"`
	LargeQtyThreshold float64 `db:"large_qty_threshold"`

	IsActive          bool       `db:"is_active"`
	LastStocktakeDate *time.Time `db:"last_stocktake_date"`
	LastStocktakeBy   string     `db:"last_stocktake_by"`
}

// TotalVolume is unit_size x on_hand, e.g. 10 bags of 50kg cement -> 500.
func (i *Item) TotalVolume() float64 {
	return i.UnitSize * i.OnHand
}

// NeedsReorder reports whether on-hand stock fell to the reorder threshold.
func (i *Item) NeedsReorder() bool {
	return i.ReorderThreshold > 0 && i.OnHand <= i.ReorderThreshold
}

// AppendProject adds a project to the comma-joined project list unless it is
// already present.
func (i *Item) AppendProject(project string) {
	project = strings.TrimSpace(project)
	if project == "" {
		return
	}
	if i.Project == "" {
		i.Project = project
		return
	}
	for _, existing := range strings.Split(i.Project, ",") {
		if strings.EqualFold(strings.TrimSpace(existing), project) {
			return
		}
	}
	i.Project = i.Project + ", " + project
}

// categoryKeywords routes lowercased name fragments to catalogue categories.
// First hit wins; order matters (e.g. "steel wire" is Electrical only when no
// steel keyword appears first, so steel keywords come first).
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"Steel", []string{"steel", "beam", "rebar", "rod", "angle iron", "iron sheet"}},
	{"Cement", []string{"cement", "concrete", "mortar"}},
	{"Electrical", []string{"wire", "cable", "socket", "switch", "breaker", "conduit", "bulb"}},
	{"Paint", []string{"paint", "primer", "varnish", "thinner"}},
	{"Plumbing", []string{"pipe", "pvc", "elbow", "valve", "tap", "coupling"}},
	{"Timber", []string{"timber", "wood", "plank", "plywood", "pole"}},
	{"Aggregate", []string{"sand", "quarry", "stone", "gravel", "aggregate"}},
	{"Fasteners", []string{"nail", "screw", "bolt", "nut", "washer", "hinge"}},
	{"Roofing", []string{"roof", "sheet", "gutter", "ridge"}},
}

// DefaultCategory is assigned when no keyword matches.
const DefaultCategory = "General"

// CategoryFor maps an item name onto the closed category set.
func CategoryFor(name string) string {
	lower := strings.ToLower(name)
	for _, entry := range categoryKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.category
			}
		}
	}
	return DefaultCategory
}

// UnitSpec is the unit metadata parsed out of an item name.
type UnitSpec struct {
	Size float64
	Type string
}

// UnitSpecFromName extracts unit size and type from a trailing
// "<number><unit>" pattern, e.g. "Paint 20ltrs" -> {20, "ltrs"}.
// Thickness descriptors (12mm) never define the unit; the fallback is
// one piece.
func UnitSpecFromName(name string) UnitSpec {
	tokens := strings.Fields(similarity.Normalize(name))
	for i := len(tokens) - 1; i >= 0; i-- {
		tok := tokens[i]
		digits := 0
		for digits < len(tok) && (tok[digits] >= '0' && tok[digits] <= '9' || tok[digits] == '.') {
			digits++
		}
		if digits == 0 || digits == len(tok) {
			continue
		}
		unit, known := similarity.CanonicalUnit(tok[digits:])
		if !known || similarity.IsThicknessUnit(unit) {
			continue
		}
		size, err := strconv.ParseFloat(tok[:digits], 64)
		if err != nil || size <= 0 {
			continue
		}
		return UnitSpec{Size: size, Type: tok[digits:]}
	}
	return UnitSpec{Size: 1, Type: similarity.DefaultUnit}
}

// NewItemFromName builds a catalogue entry for a name seen for the first time
// in a command. The name is used verbatim as identity.
func NewItemFromName(name string) *Item {
	spec := UnitSpecFromName(name)
	return &Item{
		Name:     name,
		OnHand:   0,
		UnitSize: spec.Size,
		UnitType: spec.Type,
		Category: CategoryFor(name),
		IsActive: true,
	}
}
