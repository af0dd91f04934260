package model

import (
	"errors"
	"fmt"
)

var (
	// ErrItemNotFound is returned when the catalogue has no such item
	ErrItemNotFound = errors.New("item not found")

	// ErrItemAlreadyExists is returned when creating a duplicate item name
	ErrItemAlreadyExists = errors.New("item already exists")

	// ErrInvalidUnitSize is returned when unit size is not positive
	ErrInvalidUnitSize = errors.New("unit size must be positive")

	// ErrNegativeStock is returned when a write would drive on_hand below zero
	ErrNegativeStock = errors.New("stock level cannot go negative")

	// ErrStoreUnavailable is returned when the catalogue store cannot be reached
	ErrStoreUnavailable = errors.New("catalogue store unavailable")
)

// NewItemNotFoundError creates a detailed not found error
func NewItemNotFoundError(name string) error {
	return fmt.Errorf("%w: %q", ErrItemNotFound, name)
}

// IsNotFoundError checks if error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrItemNotFound)
}
