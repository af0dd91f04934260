package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatchErrorFormatting(t *testing.T) {
	be := New(CategoryValidation, SeverityError, "quantity must be positive")
	assert.Equal(t, "[VALIDATION/ERROR] quantity must be positive", be.Error())

	be.WithEntry(2, "cement 50kg")
	assert.Equal(t, "[VALIDATION/ERROR] entry 3: quantity must be positive", be.Error())
	assert.Equal(t, "cement 50kg", be.EntryDetails)
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("store unavailable")
	be := Wrap(CategoryDatabase, SeverityCritical, cause)

	assert.ErrorIs(t, be, cause)
	assert.Equal(t, "store unavailable", be.Message)
}

func TestIsCritical(t *testing.T) {
	assert.True(t, IsCritical(New(CategoryDatabase, SeverityCritical, "boom")))
	assert.False(t, IsCritical(New(CategoryValidation, SeverityError, "bad entry")))
	assert.False(t, IsCritical(errors.New("plain")))

	// Severity survives wrapping in plain error chains.
	wrapped := fmt.Errorf("processing batch: %w", New(CategoryRollback, SeverityCritical, "revert failed"))
	assert.True(t, IsCritical(wrapped))
}

func TestAsBatchError(t *testing.T) {
	be := New(CategoryParsing, SeverityError, "bad line")
	assert.Same(t, be, AsBatchError(be))

	coerced := AsBatchError(errors.New("quantity missing"))
	assert.Equal(t, CategoryValidation, coerced.Category)
	assert.Equal(t, SeverityError, coerced.Severity)
}

func TestSuggestionFor(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{
			name:    "rollback guidance wins over database guidance",
			message: "rollback failed: database timeout",
			want:    "Rollback was attempted. Verify stock levels manually before re-submitting.",
		},
		{
			name:    "store trouble suggests retry",
			message: "catalogue store unavailable",
			want:    "The stock database did not respond. Wait a moment and try again.",
		},
		{
			name:    "parse trouble points at the format",
			message: "cannot parse quantity segment",
			want:    "Check the command format: item name, quantity unit, one entry per line. Send 'help' for examples.",
		},
		{
			name:    "everything else gets the generic hint",
			message: "item does not exist",
			want:    "Check the entry values (name, quantity, project) and re-submit.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SuggestionFor(tt.message))
		})
	}
}
