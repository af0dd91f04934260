package approval

import (
	"time"

	"sitestock-backend/internal/domains/duplicate"
	"sitestock-backend/internal/domains/movement/model"
	"sitestock-backend/internal/domains/movement/service"
)

// BatchStatus is the lifecycle of a staged batch.
type BatchStatus string

const (
	StatusPending  BatchStatus = "PENDING"
	StatusApproved BatchStatus = "APPROVED"
	StatusRejected BatchStatus = "REJECTED"
	StatusExpired  BatchStatus = "EXPIRED"
)

// BatchApproval is one staged batch awaiting an admin decision. It lives in
// process memory only; a restart drops all pending batches.
type BatchApproval struct {
	BatchID   string
	ChatID    int64
	Movements []model.StockMovement
	Submitter service.Submitter

	BeforeLevels map[string]float64
	Status       BatchStatus
	CreatedAt    time.Time
}

// DuplicateAction is a user decision on one pending duplicate.
type DuplicateAction string

const (
	ActionConfirm   DuplicateAction = "confirm"    // merge onto the existing item
	ActionCreateNew DuplicateAction = "create_new" // insert as a new item
	ActionCancel    DuplicateAction = "cancel"     // skip the entry
)

// PendingDuplicates is the per-chat confirmation dialogue state. The entry
// is removed once every duplicate is confirmed or cancelled.
type PendingDuplicates struct {
	ChatID       int64
	Duplicates   []duplicate.Match
	MovementType model.MovementType
	User         service.Submitter
	CreatedAt    time.Time

	Confirmed map[int]DuplicateAction // index -> confirm/create_new
	Cancelled map[int]bool
}

// Resolved reports whether every duplicate has a decision.
func (p *PendingDuplicates) Resolved() bool {
	return len(p.Confirmed)+len(p.Cancelled) == len(p.Duplicates)
}

// Movements materializes the decided entries: confirmed duplicates carry the
// existing item's canonical name, create_new entries keep the entered name,
// cancelled entries are dropped.
func (p *PendingDuplicates) Movements() []model.StockMovement {
	var out []model.StockMovement
	for i, m := range p.Duplicates {
		action, ok := p.Confirmed[i]
		if !ok {
			continue
		}
		mv := m.Candidate
		if action == ActionConfirm {
			mv.ItemName = m.Existing.Name
		}
		out = append(out, mv)
	}
	return out
}
