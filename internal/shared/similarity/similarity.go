package similarity

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Match classification thresholds.
const (
	ExactThreshold   = 0.95
	SimilarThreshold = 0.7
	FuzzyThreshold   = 0.5
)

// stopwords are dropped before keyword comparison. Kept short: item names are
// terse already and over-filtering hurts recall.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "and": true,
	"for": true, "with": true, "to": true, "in": true, "on": true,
	"at": true, "by": true, "from": true, "per": true,
}

// Normalize lowercases, trims, collapses whitespace and treats '-' and '_'
// as word separators.
func Normalize(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")
	return strings.Join(strings.Fields(s), " ")
}

// Quantity is a parsed (value, unit) pair extracted from an item name.
type Quantity struct {
	Value float64
	Unit  string
}

// splitNumericPrefix splits a token like "50kg" or "2.5sqmm" into its numeric
// prefix and the remainder. Returns ok=false when the token has no numeric prefix.
func splitNumericPrefix(token string) (num string, rest string, ok bool) {
	i := 0
	dot := false
	for i < len(token) {
		c := rune(token[i])
		if unicode.IsDigit(c) {
			i++
			continue
		}
		if c == '.' && !dot && i+1 < len(token) && unicode.IsDigit(rune(token[i+1])) {
			dot = true
			i++
			continue
		}
		break
	}
	if i == 0 {
		return "", "", false
	}
	return token[:i], token[i:], true
}

// ExtractQuantity finds the first quantity token in a normalized name.
// A quantity is a number with an optional unit from the closed vocabulary,
// either glued ("50kg") or as the following token ("50 kg"). Thickness units
// (mm, cm, inch) describe the item, not its count, and are skipped. A bare
// number without any unit counts as pieces.
func ExtractQuantity(name string) Quantity {
	tokens := strings.Fields(Normalize(name))
	bare := Quantity{Value: 0, Unit: DefaultUnit}
	bareFound := false

	for i, tok := range tokens {
		num, rest, ok := splitNumericPrefix(tok)
		if !ok {
			continue
		}
		value, err := strconv.ParseFloat(num, 64)
		if err != nil {
			continue
		}

		if rest != "" {
			unit, known := CanonicalUnit(rest)
			if !known {
				continue // e.g. "m16" bolt sizes, part numbers
			}
			if IsThicknessUnit(unit) {
				continue
			}
			return Quantity{Value: value, Unit: unit}
		}

		// Bare number: look at the next token for a detached unit.
		if i+1 < len(tokens) {
			if unit, known := CanonicalUnit(tokens[i+1]); known {
				if IsThicknessUnit(unit) {
					continue
				}
				return Quantity{Value: value, Unit: unit}
			}
		}
		if !bareFound {
			bare = Quantity{Value: value, Unit: DefaultUnit}
			bareFound = true
		}
	}

	return bare
}

// ExtractKeywords tokenizes a name and drops stopwords, single characters and
// pure quantity tokens (number plus vocabulary unit). Thickness descriptors
// like "12mm" survive as keywords; a decimal size embedded in a quantity token
// ("2.5sqmm") survives as its numeric part ("2.5").
func ExtractKeywords(name string) []string {
	tokens := strings.Fields(Normalize(name))
	keywords := make([]string, 0, len(tokens))
	seen := make(map[string]bool)

	skipNext := false
	for i, tok := range tokens {
		if skipNext {
			skipNext = false
			continue
		}
		if stopwords[tok] {
			continue
		}

		keep := tok
		if num, rest, ok := splitNumericPrefix(tok); ok {
			if rest != "" {
				if unit, known := CanonicalUnit(rest); known {
					if IsThicknessUnit(unit) {
						// descriptor, keep the whole token
					} else if strings.Contains(num, ".") {
						keep = num
					} else {
						continue // pure quantity token, e.g. "50kg"
					}
				}
			} else if i+1 < len(tokens) {
				// Bare number followed by a detached unit token.
				if unit, known := CanonicalUnit(tokens[i+1]); known && !IsThicknessUnit(unit) {
					skipNext = true
					if strings.Contains(num, ".") {
						keep = num
					} else {
						continue
					}
				}
			}
		}

		if len(keep) < 2 {
			continue
		}
		if !seen[keep] {
			seen[keep] = true
			keywords = append(keywords, keep)
		}
	}

	return keywords
}

// quantitiesClose reports whether two extracted quantities agree:
// both absent, or within 10% relative difference.
func quantitiesClose(a, b Quantity) bool {
	if a.Value == 0 && b.Value == 0 {
		return true
	}
	if a.Value == 0 || b.Value == 0 {
		return false
	}
	diff := math.Abs(a.Value - b.Value)
	return diff/math.Max(a.Value, b.Value) <= 0.10
}

// Score computes the order-independent keyword+quantity similarity of two item
// names, in [0,1]. Identical normalized names score 1.0. Names must share all
// keywords but one; matching quantities lift the score into the similar/exact
// band, diverging quantities pin it at the fuzzy floor.
func Score(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1.0
	}

	ka := ExtractKeywords(na)
	kb := ExtractKeywords(nb)
	if len(ka) == 0 || len(kb) == 0 {
		return 0
	}

	setB := make(map[string]bool, len(kb))
	for _, k := range kb {
		setB[k] = true
	}
	exact := 0
	for _, k := range ka {
		if setB[k] {
			exact++
		}
	}

	// total over the larger keyword set keeps the metric symmetric.
	total := len(ka)
	if len(kb) > total {
		total = len(kb)
	}
	need := total - 1
	if need < 1 {
		need = 1
	}
	if exact < need {
		return 0
	}

	qa := ExtractQuantity(na)
	qb := ExtractQuantity(nb)
	if !quantitiesClose(qa, qb) {
		return 0.6
	}

	score := 0.7 + 0.3*float64(exact)/float64(total)
	if ka[0] == kb[0] {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
