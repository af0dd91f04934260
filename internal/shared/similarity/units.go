package similarity

import "strings"

// unitAliases maps every accepted spelling of a unit to its canonical token.
// Construction sites are loose with spelling; the vocabulary is closed on purpose
// so that random words never get mistaken for units.
var unitAliases = map[string]string{
	"piece": "piece", "pieces": "piece", "pc": "piece", "pcs": "piece",
	"bag": "bag", "bags": "bag",
	"m": "m", "meter": "m", "meters": "m", "metre": "m", "metres": "m",
	"kg": "kg", "kgs": "kg",
	"ton": "ton", "tons": "ton", "tonne": "ton", "tonnes": "ton",
	"l": "l", "ltr": "l", "ltrs": "l", "litre": "l", "litres": "l", "liter": "l", "liters": "l",
	"mm": "mm",
	"cm": "cm",
	"inch": "inch", "inches": "inch", "in": "inch",
	"sqmm": "sqmm",
	"sqm":  "sqm",
	"box": "box", "boxes": "box",
	"roll": "roll", "rolls": "roll",
	"bundle": "bundle", "bundles": "bundle",
	"carton": "carton", "cartons": "carton",
	"set": "set", "sets": "set",
	"pair": "pair", "pairs": "pair",
	"sheet": "sheet", "sheets": "sheet",
	"drum": "drum", "drums": "drum",
	"tin": "tin", "tins": "tin",
	"length": "length", "lengths": "length",
}

// thicknessUnits are dimensional descriptors, not countable base units.
// "steel bar 12mm" is counted in pieces; the 12mm stays part of the name.
var thicknessUnits = map[string]bool{
	"mm":   true,
	"cm":   true,
	"inch": true,
}

// CanonicalUnit resolves a token against the unit vocabulary.
// Returns ("", false) when the token is not a known unit.
func CanonicalUnit(token string) (string, bool) {
	u, ok := unitAliases[strings.ToLower(token)]
	return u, ok
}

// IsThicknessUnit reports whether the canonical unit is a dimensional
// descriptor rather than a base quantity unit.
func IsThicknessUnit(unit string) bool {
	return thicknessUnits[unit]
}

// DefaultUnit is used whenever no unit is given.
const DefaultUnit = "piece"
