// Package database defines the contract every backend connector implements.
package database

import (
	"context"
	"errors"
	"time"

	"github.com/satishbabariya/ormkit/internal/core/query/domain"
	"github.com/satishbabariya/ormkit/internal/core/translator"
)

// ErrTransactionsUnsupported is returned by connectors whose backend has no
// transaction support.
var ErrTransactionsUnsupported = errors.New("transactions are not supported by this connector")

// Connector executes query descriptors against one backend.
type Connector interface {
	// Dialect identifies the backend.
	Dialect() domain.Dialect

	// Translator returns the translator the connector renders with.
	Translator() translator.Translator

	// Connect establishes the connection. It is called lazily by every
	// other method and is a no-op once connected.
	Connect(ctx context.Context) error

	// Ping reports whether the backend answers. Errors are swallowed.
	Ping(ctx context.Context) bool

	// Query translates and executes desc.
	Query(ctx context.Context, desc *domain.Description) (*domain.Result, error)

	// Transaction runs fn inside a transaction. Queries issued with the
	// context passed to fn join it. fn's error rolls the transaction back and
	// is returned unchanged.
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Capabilities describes optional behavior.
	Capabilities() Capabilities

	// Close releases the connection. Repeated calls are no-ops.
	Close(ctx context.Context) error
}

// Capabilities lists what a connector supports beyond the common contract.
type Capabilities struct {
	Transactions bool
	// Returning means inserts report the written rows.
	Returning bool
}

// Entry describes one executed statement.
type Entry struct {
	Dialect domain.Dialect
	Query   string
	Args    []any
	Elapsed time.Duration
	Err     error
}

// QueryLogger receives every executed statement.
type QueryLogger func(ctx context.Context, e Entry)
