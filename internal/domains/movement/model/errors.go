package model

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingItemName is returned when an entry has no item name
	ErrMissingItemName = errors.New("missing item name")

	// ErrMissingQuantity is returned when an entry has no quantity token
	ErrMissingQuantity = errors.New("missing quantity")

	// ErrNonPositiveQuantity is returned for zero/negative In or Out quantities
	ErrNonPositiveQuantity = errors.New("quantity must be positive")

	// ErrMissingProject is returned when a movement has no project
	ErrMissingProject = errors.New("project is required for movements")

	// ErrMixedMovementTypes is returned when a batch mixes In/Out/Adjust
	ErrMixedMovementTypes = errors.New("all entries in a batch must share one movement type")

	// ErrBatchTooLarge is returned when the entry limit is exceeded
	ErrBatchTooLarge = errors.New("too many entries in one batch")

	// ErrInsufficientStock is returned when an outflow exceeds on-hand stock
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrEmptyCommand is returned when no entry could be parsed at all
	ErrEmptyCommand = errors.New("no entries found in command")

	// ErrInvalidDate is returned for malformed or impossible dates
	ErrInvalidDate = errors.New("invalid date")
)

// NewInsufficientStockError creates an error with stock details
func NewInsufficientStockError(item string, requested, onHand float64) error {
	return fmt.Errorf("%w: %s: requested %.4g, on hand %.4g", ErrInsufficientStock, item, requested, onHand)
}

// NewBatchTooLargeError creates an error with limit guidance
func NewBatchTooLargeError(entries, limit int) error {
	return fmt.Errorf("%w: %d entries, limit %d, split into smaller batches", ErrBatchTooLarge, entries, limit)
}

// IsInsufficientStockError checks if error is an insufficient stock error
func IsInsufficientStockError(err error) bool {
	return errors.Is(err, ErrInsufficientStock)
}
