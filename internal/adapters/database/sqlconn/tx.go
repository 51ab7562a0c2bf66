package sqlconn

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/satishbabariya/ormkit/internal/debug"
	"github.com/satishbabariya/ormkit/internal/runtime"
)

// txHandle is the transaction stored in the callback context. owner keeps
// connectors from picking up each other's transactions.
type txHandle struct {
	owner *Connector
	tx    *sql.Tx
}

func (t *txHandle) Commit() error   { return t.tx.Commit() }
func (t *txHandle) Rollback() error { return t.tx.Rollback() }

func (c *Connector) transaction(ctx context.Context) (*txHandle, bool) {
	tx, ok := runtime.TransactionFromContext(ctx)
	if !ok {
		return nil, false
	}
	h, ok := tx.(*txHandle)
	if !ok || h.owner != c {
		return nil, false
	}
	return h, true
}

// Transaction runs fn in a transaction. A call made with a context that
// already carries one of this connector's transactions joins it.
func (c *Connector) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := c.transaction(ctx); ok {
		return fn(ctx)
	}

	p, err := c.connected(ctx)
	if err != nil {
		return err
	}

	tx, err := p.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	h := &txHandle{owner: c, tx: tx}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(runtime.WithTransaction(ctx, h)); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			debug.Warn("rollback failed", "dialect", c.Dialect(), "error", rerr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", runtime.ErrTransactionFailed, err)
	}
	return nil
}
