package approval

import "errors"

var (
	// ErrNotAdmin is returned when a non-admin tries to resolve a batch
	ErrNotAdmin = errors.New("only admins can approve or reject batches")

	// ErrBatchNotFound is returned for unknown or already resolved batch ids
	ErrBatchNotFound = errors.New("pending batch not found")

	// ErrNoPendingDuplicates is returned when a chat has no open duplicate dialogue
	ErrNoPendingDuplicates = errors.New("no pending duplicates for this chat")

	// ErrDuplicateIndex is returned for an out-of-range duplicate index
	ErrDuplicateIndex = errors.New("duplicate index out of range")

	// ErrMovementNotFound is returned when a void target cannot be located
	ErrMovementNotFound = errors.New("movement not found")
)
