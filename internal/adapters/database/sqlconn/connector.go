// Package sqlconn implements the connector behavior shared by the
// database/sql backends: lazy pooled connect, statement execution, row
// normalization, transactions and one-shot reconnects.
package sqlconn

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/satishbabariya/ormkit/internal/adapters/database"
	"github.com/satishbabariya/ormkit/internal/core/database/pool"
	"github.com/satishbabariya/ormkit/internal/core/query/domain"
	"github.com/satishbabariya/ormkit/internal/core/translator"
	"github.com/satishbabariya/ormkit/internal/core/translator/sqlgen"
	"github.com/satishbabariya/ormkit/internal/debug"
	"github.com/satishbabariya/ormkit/internal/runtime"
)

// Options configures a Connector.
type Options struct {
	DriverName string
	DSN        string
	Translator *sqlgen.Translator
	Pool       pool.Config

	// ConnectAttempts bounds the initial ping retries. Zero means one try.
	ConnectAttempts int

	// ReconnectOnTimeout resubmits a statement once, on a fresh pool, after
	// an error IsTimeout accepts. Statements inside a transaction are never
	// resubmitted.
	ReconnectOnTimeout bool
	IsTimeout          func(error) bool

	// OnConnect runs once per pool, after the first successful ping.
	OnConnect func(ctx context.Context, db *sql.DB) error

	Logger database.QueryLogger
}

// Connector is a database.Connector over database/sql.
type Connector struct {
	opts Options

	mu   sync.Mutex
	pool *pool.Pool
}

var _ database.Connector = (*Connector)(nil)

// New validates opts and returns an unconnected Connector.
func New(opts Options) (*Connector, error) {
	if opts.Translator == nil {
		return nil, runtime.Configf("sqlconn: translator is required")
	}
	if opts.DriverName == "" {
		return nil, runtime.Configf("sqlconn: driver name is required")
	}
	if opts.ConnectAttempts < 1 {
		opts.ConnectAttempts = 1
	}
	return &Connector{opts: opts}, nil
}

func (c *Connector) Dialect() domain.Dialect { return c.opts.Translator.Dialect() }

func (c *Connector) Translator() translator.Translator { return c.opts.Translator }

// Capabilities reports transaction support and whether inserts use RETURNING.
func (c *Connector) Capabilities() database.Capabilities {
	return database.Capabilities{Transactions: true, Returning: c.opts.Translator.Returning()}
}

// Connect opens the pool on first use.
func (c *Connector) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.connectLocked(ctx)
}

func (c *Connector) connectLocked(ctx context.Context) error {
	if c.pool != nil {
		return nil
	}

	p, err := pool.New(c.opts.DriverName, c.opts.DSN, c.opts.Pool)
	if err != nil {
		return fmt.Errorf("%w: %w", runtime.ErrConnectionFailed, err)
	}

	err = runtime.Retry(ctx, func() error {
		return p.HealthCheck(ctx)
	}, runtime.WithMaxAttempts(c.opts.ConnectAttempts))
	if err == nil && c.opts.OnConnect != nil {
		err = c.opts.OnConnect(ctx, p.DB())
	}
	if err != nil {
		_ = p.Close()
		if errors.Is(err, runtime.ErrConfig) {
			return err
		}
		return fmt.Errorf("%w: %w", runtime.ErrConnectionFailed, err)
	}

	debug.Debug("connected", "dialect", c.Dialect(), "driver", c.opts.DriverName, "max_open", c.opts.Pool.MaxOpenConns)
	c.pool = p
	return nil
}

// Ping reports whether the database answers.
func (c *Connector) Ping(ctx context.Context) bool {
	p, err := c.connected(ctx)
	if err != nil {
		return false
	}
	return p.HealthCheck(ctx) == nil
}

// Pool returns the open pool, or nil before Connect.
func (c *Connector) Pool() *pool.Pool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pool
}

// Close closes the pool.
func (c *Connector) Close(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pool == nil {
		return nil
	}
	err := c.pool.Close()
	c.pool = nil
	return err
}

func (c *Connector) connected(ctx context.Context) (*pool.Pool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.connectLocked(ctx); err != nil {
		return nil, err
	}
	return c.pool, nil
}

func (c *Connector) reconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pool != nil {
		_ = c.pool.Close()
		c.pool = nil
	}
	debug.Warn("reconnecting after timeout", "dialect", c.Dialect())
	return c.connectLocked(ctx)
}

// Query translates desc and executes it on the transaction carried by ctx,
// or on the pool.
func (c *Connector) Query(ctx context.Context, desc *domain.Description) (*domain.Result, error) {
	stmt, err := c.opts.Translator.Translate(desc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", runtime.ErrInvalidQuery, err)
	}

	var res *domain.Result
	run := func(ctx context.Context) error {
		q, err := c.queryer(ctx)
		if err != nil {
			return err
		}
		res, err = c.execute(ctx, q, stmt)
		return err
	}

	_, inTx := c.transaction(ctx)
	if c.opts.ReconnectOnTimeout && !inTx {
		err = runtime.ReconnectOnce(ctx, run, c.opts.IsTimeout, c.reconnect)
	} else {
		err = run(ctx)
	}
	if err != nil {
		qerr := runtime.NewQueryError(string(stmt.Type), desc.Table, err)
		qerr.Query, qerr.Args = stmt.SQL, stmt.Args
		return nil, qerr
	}
	return res, nil
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (c *Connector) queryer(ctx context.Context) (queryer, error) {
	if tx, ok := c.transaction(ctx); ok {
		return tx.tx, nil
	}
	p, err := c.connected(ctx)
	if err != nil {
		return nil, err
	}
	return p.DB(), nil
}

func (c *Connector) execute(ctx context.Context, q queryer, stmt *sqlgen.Statement) (*domain.Result, error) {
	start := time.Now()
	res, err := c.run(ctx, q, stmt)
	c.log(ctx, stmt, time.Since(start), err)
	return res, err
}

func (c *Connector) run(ctx context.Context, q queryer, stmt *sqlgen.Statement) (*domain.Result, error) {
	if stmt.Returns {
		rows, err := q.QueryContext(ctx, stmt.SQL, stmt.Args...)
		if err != nil {
			return nil, err
		}
		records, err := c.scan(rows)
		if err != nil {
			return nil, err
		}

		res := &domain.Result{Rows: records}
		if stmt.Type == domain.Insert {
			res.AffectedRows = int64(len(records))
			if n := len(records); n > 0 {
				res.LastInsertID, res.HasLastInsertID = records[n-1]["id"]
			}
		}
		return res, nil
	}

	out, err := q.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, err
	}

	res := &domain.Result{}
	if n, err := out.RowsAffected(); err == nil {
		res.AffectedRows = n
	}
	if stmt.Type == domain.Insert {
		if id, err := out.LastInsertId(); err == nil {
			res.LastInsertID, res.HasLastInsertID = id, true
		}
	}
	return res, nil
}

func (c *Connector) log(ctx context.Context, stmt *sqlgen.Statement, elapsed time.Duration, err error) {
	debug.Statement(ctx, string(c.Dialect()), stmt.SQL, stmt.Args, elapsed, err)
	if c.opts.Logger != nil {
		c.opts.Logger(ctx, database.Entry{
			Dialect: c.Dialect(),
			Query:   stmt.SQL,
			Args:    stmt.Args,
			Elapsed: elapsed,
			Err:     err,
		})
	}
}
