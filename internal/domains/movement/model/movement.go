package model

import (
	"time"
)

// MovementType tags the direction of a stock change.
type MovementType string

const (
	MovementIn     MovementType = "In"
	MovementOut    MovementType = "Out"
	MovementAdjust MovementType = "Adjust"
)

// ParseMovementType resolves a command verb to a movement type.
func ParseMovementType(verb string) (MovementType, bool) {
	switch verb {
	case "in":
		return MovementIn, true
	case "out":
		return MovementOut, true
	case "adjust":
		return MovementAdjust, true
	}
	return "", false
}

// Reason is the bookkeeping reason recorded per movement row.
func (t MovementType) Reason() string {
	switch t {
	case MovementIn:
		return "Purchase"
	case MovementOut:
		return "Issue"
	default:
		return "Adjustment"
	}
}

// Status is the movement lifecycle state.
type Status string

const (
	StatusRequested Status = "Requested"
	StatusPosted    Status = "Posted"
	StatusVoided    Status = "Voided"
	StatusRejected  Status = "Rejected"
)

// StockMovement is a single recorded stock change.
type StockMovement struct {
	ID      string
	BatchID string

	ItemName string
	Type     MovementType

	// Quantity is the entered amount: positive for In/Out, signed for Adjust.
	Quantity float64
	Unit     string

	// SignedBaseQuantity is the effect on on_hand:
	// +q for In, -q for Out, +-q for Adjust.
	SignedBaseQuantity float64

	Status    Status
	Timestamp time.Time

	UserID   int64
	UserName string

	Driver       string
	FromLocation string
	ToLocation   string
	Project      string
	Note         string
	Reason       string
	Category     string

	// BatchNumber is the originating "-batch N-" segment, 0 for flat batches.
	BatchNumber int
}

// Sign derives the signed base quantity from type and entered quantity.
func Sign(t MovementType, quantity float64) float64 {
	switch t {
	case MovementOut:
		if quantity > 0 {
			return -quantity
		}
		return quantity
	case MovementIn:
		if quantity < 0 {
			return -quantity
		}
		return quantity
	default:
		return quantity
	}
}

// GlobalParams are batch-head fields inherited by every entry.
type GlobalParams struct {
	Project string
	Driver  string
	From    string
	To      string
}

const (
	// NotDescribed fills omitted global fields.
	NotDescribed = "not described"
	// ExternalDestination is the default destination for outflows.
	ExternalDestination = "external"
)

// WithDefaults fills empty optional fields with the documented defaults.
// Outflows without a destination go to "external"; driver and origin read
// "not described". Project has no default: movements require one.
func (g GlobalParams) WithDefaults(t MovementType) GlobalParams {
	out := g
	if out.Driver == "" {
		out.Driver = NotDescribed
	}
	if out.From == "" {
		out.From = NotDescribed
	}
	if out.To == "" {
		if t == MovementOut {
			out.To = ExternalDestination
		} else {
			out.To = NotDescribed
		}
	}
	return out
}

// InventoryStocktake is the audit record of one counted line.
// Counts are cumulative: new_on_hand = previous_on_hand + counted_qty.
type InventoryStocktake struct {
	BatchID        string
	Date           string // ISO date
	ItemName       string
	CountedQty     float64
	PreviousOnHand float64
	NewOnHand      float64
	Discrepancy    float64
	AppliedAt      time.Time
	AppliedBy      string
}
