// Package runtime holds the error vocabulary, retry helpers and context
// plumbing shared by connectors and the orm facade.
package runtime

import (
	"errors"
	"fmt"
)

// Error types for runtime operations.
var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")

	// ErrConnectionFailed is returned when the backend cannot be reached.
	ErrConnectionFailed = errors.New("database connection failed")

	// ErrTransactionFailed is returned when a commit fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrInvalidQuery is returned when a query is rejected before execution.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrTimeout is returned when an operation times out.
	ErrTimeout = errors.New("operation timeout")

	// ErrConfig is returned for unusable configuration.
	ErrConfig = errors.New("invalid configuration")

	// ErrRetryExhausted is returned when every retry attempt failed.
	ErrRetryExhausted = errors.New("retry attempts exhausted")
)

// QueryError represents a query execution error with context.
type QueryError struct {
	Operation string
	Table     string
	Query     string
	Args      []any
	Cause     error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("%s on %s: %v", e.Operation, e.Table, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Operation, e.Cause)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *QueryError) Is(target error) bool {
	return errors.Is(e.Cause, target)
}

// NewQueryError creates a new QueryError.
func NewQueryError(op, table string, cause error) *QueryError {
	return &QueryError{
		Operation: op,
		Table:     table,
		Cause:     cause,
	}
}

// NotFoundError is returned when a lookup matches nothing.
type NotFoundError struct {
	Table string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s found", e.Table)
}

// Is checks if the error is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTimeout reports backend timeouts. A caller's own expired deadline is
// not one.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// Configf builds an ErrConfig error.
func Configf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}
