package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingRequiredField marks a descriptor that lacks data its
	// operation needs.
	ErrMissingRequiredField = errors.New("missing required descriptor field")

	// ErrUnknownOperation marks a descriptor whose operation the translator
	// cannot render.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrUnsupportedOperator marks a comparison outside the supported set.
	ErrUnsupportedOperator = errors.New("unsupported operator")
)

// MissingFieldError names the descriptor field that was required.
type MissingFieldError struct {
	Type  Type
	Field string
}

// Error implements the error interface.
func (e *MissingFieldError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("%s: %s", ErrMissingRequiredField, e.Field)
	}
	return fmt.Sprintf("%s: %s requires %s", ErrMissingRequiredField, e.Type, e.Field)
}

// Is matches ErrMissingRequiredField.
func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingRequiredField
}

// Validate checks that the operation carries what it needs. Translators call
// it before rendering anything.
func (d *Description) Validate() error {
	if d.Op == nil {
		return ErrUnknownOperation
	}
	if d.Table == "" {
		return &MissingFieldError{Type: d.Op.Type(), Field: "table"}
	}

	switch op := d.Op.(type) {
	case InsertOp:
		if len(op.Values) == 0 {
			return &MissingFieldError{Type: Insert, Field: "values"}
		}
		for _, v := range op.Values {
			if len(v) == 0 {
				return &MissingFieldError{Type: Insert, Field: "values"}
			}
		}
	case UpdateOp:
		if len(op.Values) == 0 {
			return &MissingFieldError{Type: Update, Field: "values"}
		}
	case CreateOp:
		if len(op.Fields) == 0 {
			return &MissingFieldError{Type: Create, Field: "fields"}
		}
	case AggregateOp:
		if !op.Func.IsAggregate() {
			return fmt.Errorf("%w: %q", ErrUnknownOperation, op.Func)
		}
		if op.Func != Count && op.Field == "" {
			return &MissingFieldError{Type: op.Func, Field: "aggregator field"}
		}
	}

	for _, w := range d.Wheres {
		if !w.Operator.Valid() {
			return fmt.Errorf("%w: %q on %s", ErrUnsupportedOperator, w.Operator, w.Field)
		}
	}
	for _, w := range d.OrWheres {
		if !w.Operator.Valid() {
			return fmt.Errorf("%w: %q on %s", ErrUnsupportedOperator, w.Operator, w.Field)
		}
	}
	return nil
}
