package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// Category classifies where in the pipeline a failure happened.
type Category string

const (
	CategoryParsing    Category = "PARSING"
	CategoryValidation Category = "VALIDATION"
	CategoryDatabase   Category = "DATABASE"
	CategoryRollback   Category = "ROLLBACK"
)

// Severity drives the batch processor's rollback decision.
type Severity string

const (
	SeverityError    Severity = "ERROR"
	SeverityCritical Severity = "CRITICAL"
)

// BatchError is a categorized, user-presentable failure for one batch entry.
type BatchError struct {
	Category     Category
	Severity     Severity
	Message      string
	EntryIndex   int // -1 when the error is not tied to a single entry
	EntryDetails string
	Suggestion   string
	Err          error // wrapped cause, may be nil
}

func (e *BatchError) Error() string {
	if e.EntryIndex >= 0 {
		return fmt.Sprintf("[%s/%s] entry %d: %s", e.Category, e.Severity, e.EntryIndex+1, e.Message)
	}
	return fmt.Sprintf("[%s/%s] %s", e.Category, e.Severity, e.Message)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// New builds a BatchError with a suggestion derived from the message.
func New(category Category, severity Severity, message string) *BatchError {
	return &BatchError{
		Category:   category,
		Severity:   severity,
		Message:    message,
		EntryIndex: -1,
		Suggestion: SuggestionFor(message),
	}
}

// Wrap builds a BatchError around an underlying error.
func Wrap(category Category, severity Severity, err error) *BatchError {
	be := New(category, severity, err.Error())
	be.Err = err
	return be
}

// WithEntry attaches the batch entry position and details.
func (e *BatchError) WithEntry(index int, details string) *BatchError {
	e.EntryIndex = index
	e.EntryDetails = details
	return e
}

// IsCritical reports whether err carries CRITICAL severity.
func IsCritical(err error) bool {
	var be *BatchError
	if errors.As(err, &be) {
		return be.Severity == SeverityCritical
	}
	return false
}

// AsBatchError coerces any error into a BatchError, defaulting to a
// VALIDATION/ERROR classification for plain errors.
func AsBatchError(err error) *BatchError {
	var be *BatchError
	if errors.As(err, &be) {
		return be
	}
	return Wrap(CategoryValidation, SeverityError, err)
}

// suggestionRules maps raw-error keywords to operator guidance.
// Checked in order; first hit wins.
var suggestionRules = []struct {
	keywords   []string
	suggestion string
}{
	{
		keywords:   []string{"rollback", "revert"},
		suggestion: "Rollback was attempted. Verify stock levels manually before re-submitting.",
	},
	{
		keywords:   []string{"database", "timeout", "rate limit", "connection", "unavailable"},
		suggestion: "The stock database did not respond. Wait a moment and try again.",
	},
	{
		keywords:   []string{"parse", "format", "syntax"},
		suggestion: "Check the command format: item name, quantity unit, one entry per line. Send 'help' for examples.",
	},
}

// SuggestionFor picks user guidance by keyword-matching the raw message.
func SuggestionFor(message string) string {
	lower := strings.ToLower(message)
	for _, rule := range suggestionRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.suggestion
			}
		}
	}
	return "Check the entry values (name, quantity, project) and re-submit."
}
