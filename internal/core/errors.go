package core

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Adapters match on these with errors.Is; the concrete types
// below carry the details.
var (
	ErrValidation       = errors.New("validation failed")
	ErrStageSequence    = errors.New("stage not available for current order status")
	ErrAlreadyProcessed = errors.New("already processed")
	ErrNotFound         = errors.New("not found")
)

// FieldError is one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports malformed or out-of-range input. Nothing is persisted.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError builds a single-field ValidationError.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: fmt.Sprintf(format, args...)}}}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// add appends a field error; used while collecting domain checks.
func (e *ValidationError) add(field, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// orNil returns e when it holds at least one field error.
func (e *ValidationError) orNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// SequenceError is returned when a stage record is created while the order
// is not in a status that permits it.
type SequenceError struct {
	OrderID  int
	Stage    StageKind
	Current  Status
	Required []Status
}

func (e *SequenceError) Error() string {
	req := make([]string, len(e.Required))
	for i, s := range e.Required {
		req[i] = fmt.Sprintf("%q", s)
	}
	prefix := ""
	if e.OrderID != 0 {
		prefix = fmt.Sprintf("order %d: ", e.OrderID)
	}
	return fmt.Sprintf("%s%s cannot be recorded: status is %q (must be %s)",
		prefix, e.Stage, e.Current, strings.Join(req, " or "))
}

func (e *SequenceError) Is(target error) bool { return target == ErrStageSequence }

// notFound wraps ErrNotFound with the entity name and id.
func notFound(entity string, id int) error {
	return fmt.Errorf("%s %d: %w", entity, id, ErrNotFound)
}
