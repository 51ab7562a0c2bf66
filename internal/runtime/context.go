package runtime

import (
	"context"
)

type contextKey string

const (
	txKey    contextKey = "ormkit_tx"
	traceKey contextKey = "ormkit_trace"
)

// Transaction is the handle a connector stores in the context while a
// transaction callback runs.
type Transaction interface {
	Commit() error
	Rollback() error
}

// WithTransaction stores a transaction in the context.
func WithTransaction(ctx context.Context, tx Transaction) context.Context {
	return context.WithValue(ctx, txKey, tx)
}

// TransactionFromContext retrieves a transaction from the context.
func TransactionFromContext(ctx context.Context) (Transaction, bool) {
	tx, ok := ctx.Value(txKey).(Transaction)
	return tx, ok
}

// WithTraceID stores a trace ID in the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceKey, traceID)
}

// TraceIDFromContext retrieves a trace ID from the context.
func TraceIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(traceKey).(string)
	return id, ok
}
