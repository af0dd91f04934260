package duplicate

import (
	"fmt"

	catalogmodel "sitestock-backend/internal/domains/catalog/model"
	"sitestock-backend/internal/domains/movement/model"
	"sitestock-backend/internal/shared/similarity"
)

// MatchKind classifies how close a candidate entry is to an existing item.
type MatchKind string

const (
	KindExact   MatchKind = "EXACT"
	KindSimilar MatchKind = "SIMILAR"
	KindFuzzy   MatchKind = "FUZZY"
)

// KindForScore maps a similarity score to its classification. Scores below
// the fuzzy threshold mean the entry is a new item.
func KindForScore(score float64) (MatchKind, bool) {
	switch {
	case score >= similarity.ExactThreshold:
		return KindExact, true
	case score >= similarity.SimilarThreshold:
		return KindSimilar, true
	case score >= similarity.FuzzyThreshold:
		return KindFuzzy, true
	}
	return "", false
}

// Match pairs one candidate batch entry with its best catalogue item.
type Match struct {
	Candidate   model.StockMovement
	Existing    catalogmodel.Item
	Score       float64
	Kind        MatchKind
	BatchNumber int
	ItemIndex   int

	// Shortfall is requested minus on-hand for outflows that exceed stock.
	Shortfall float64
}

// Policy controls how matches are resolved.
type Policy struct {
	// AutoMergeExact merges EXACT matches silently onto the existing item.
	AutoMergeExact bool
	// RequireUserConfirmation parks SIMILAR and above for a user decision.
	RequireUserConfirmation bool
}

// DefaultPolicy merges exact matches and asks about the rest.
func DefaultPolicy() Policy {
	return Policy{AutoMergeExact: true, RequireUserConfirmation: true}
}

// Analysis is the duplicate report for one batch.
type Analysis struct {
	Matches      []Match
	AutoMerged   []Match
	NeedsConfirm []Match
	NewItems     []int // entry indexes with no retained match
	Warnings     []string
}

// HasPendingConfirmations reports whether the batch needs a user decision
// before it can be applied.
func (a *Analysis) HasPendingConfirmations() bool {
	return len(a.NeedsConfirm) > 0
}

// Analyze scores every batch entry against the catalogue snapshot and
// retains the best match per entry at or above the fuzzy threshold.
// Auto-merged entries are rewritten in place to the existing item's
// canonical name so the executor lands on the existing record.
func Analyze(batch *model.ParsedBatch, items []catalogmodel.Item, policy Policy) *Analysis {
	analysis := &Analysis{}

	for i := range batch.Movements {
		mv := &batch.Movements[i]

		best, bestScore := bestMatch(mv.ItemName, items)
		kind, matched := MatchKind(""), false
		if best != nil {
			kind, matched = KindForScore(bestScore)
		}
		if !matched {
			analysis.NewItems = append(analysis.NewItems, i)
			continue
		}

		m := Match{
			Candidate:   *mv,
			Existing:    *best,
			Score:       bestScore,
			Kind:        kind,
			BatchNumber: mv.BatchNumber,
			ItemIndex:   i,
		}

		// Outflows can only draw on what the matched item actually holds.
		if mv.Type == model.MovementOut && kind != KindFuzzy {
			requested := mv.Quantity
			if requested > best.OnHand {
				m.Shortfall = requested - best.OnHand
				analysis.Warnings = append(analysis.Warnings, fmt.Sprintf(
					"%q matches %q but requested %.4g exceeds on-hand %.4g (short %.4g)",
					mv.ItemName, best.Name, requested, best.OnHand, m.Shortfall))
			}
		}

		analysis.Matches = append(analysis.Matches, m)

		switch {
		case kind == KindExact && policy.AutoMergeExact:
			mv.ItemName = best.Name
			analysis.AutoMerged = append(analysis.AutoMerged, m)
		case kind != KindFuzzy && policy.RequireUserConfirmation:
			analysis.NeedsConfirm = append(analysis.NeedsConfirm, m)
		default:
			analysis.Warnings = append(analysis.Warnings, fmt.Sprintf(
				"%q loosely resembles existing %q (score %.2f), creating a new item",
				mv.ItemName, best.Name, bestScore))
			analysis.NewItems = append(analysis.NewItems, i)
		}
	}

	return analysis
}

// bestMatch scans the snapshot for the highest-scoring item.
func bestMatch(candidate string, items []catalogmodel.Item) (*catalogmodel.Item, float64) {
	var best *catalogmodel.Item
	bestScore := 0.0
	for i := range items {
		score := similarity.Score(candidate, items[i].Name)
		if score > bestScore {
			best = &items[i]
			bestScore = score
		}
	}
	return best, bestScore
}
