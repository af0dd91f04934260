package model

import (
	"time"

	"sitestock-backend/internal/shared/apperrors"
)

// Batch size limits. Oversized submissions get a split-the-batch rejection.
const (
	MaxMovementEntries  = 40
	MaxStocktakeEntries = 50
)

// LargeQtySoftLimit triggers a confirmation warning, not a rejection. It is
// the parse-time default; at posting time the configured threshold and any
// per-item threshold take precedence.
const LargeQtySoftLimit = 10000

// BatchFormat names the structural shape the parser detected.
type BatchFormat string

const (
	FormatSegmented BatchFormat = "segmented"
	FormatFree      BatchFormat = "free"
	FormatSingle    BatchFormat = "single"
	FormatStocktake BatchFormat = "stocktake"
)

// ParsedBatch is the parser output for a movement command.
type ParsedBatch struct {
	Type     MovementType
	Format   BatchFormat
	Globals  GlobalParams
	Segments int

	// Movements carry inherited globals already applied; Status and ids are
	// filled downstream.
	Movements []StockMovement

	Errors   []*apperrors.BatchError
	Warnings []string
}

// IsValid reports whether every entry parsed cleanly.
func (p *ParsedBatch) IsValid() bool {
	return len(p.Errors) == 0 && len(p.Movements) > 0
}

// StocktakeEntry is one counted line before application.
type StocktakeEntry struct {
	ItemName   string
	CountedQty float64
	UnitPhrase string
	LineNumber int
}

// ParsedStocktake is the parser output for an "inventory" command.
type ParsedStocktake struct {
	LoggedBy []string
	Date     string // ISO date
	Category string

	Entries []StocktakeEntry

	CommentLines int
	BlankLines   int

	Errors   []*apperrors.BatchError
	Warnings []string
}

// IsValid reports whether every counted line parsed cleanly.
func (p *ParsedStocktake) IsValid() bool {
	return len(p.Errors) == 0 && len(p.Entries) > 0
}

// BatchResult is the outcome of applying one staged batch.
type BatchResult struct {
	BatchID string

	Total      int
	Successful []StockMovement
	Failed     []*apperrors.BatchError

	BeforeLevels map[string]float64
	AfterLevels  map[string]float64

	RolledBack     bool
	RollbackFailed bool

	// LowStock lists items that crossed their reorder threshold.
	LowStock []string

	// Warnings carries soft alerts, e.g. posted quantities over an item's
	// large-quantity threshold.
	Warnings []string

	Summary  string
	Duration time.Duration
}

// SuccessRate is successful/total in percent.
func (r *BatchResult) SuccessRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(len(r.Successful)) / float64(r.Total) * 100
}
