// Package orm is the application-facing API: a Database bound to one
// connector and per-model queries built on top of it.
//
//	db, err := orm.Open(cfg.Database)
//	db.Link(Article)
//	err = db.Sync(ctx, orm.SyncOptions{Drop: true})
//	rows, err := db.Model(Article).Where("title", "hola").Get(ctx)
package orm

import (
	"context"
	"log/slog"
	"time"

	"github.com/satishbabariya/ormkit/internal/adapters/database"
	"github.com/satishbabariya/ormkit/internal/adapters/database/factory"
	"github.com/satishbabariya/ormkit/internal/config"
	"github.com/satishbabariya/ormkit/internal/core/query/builder"
	"github.com/satishbabariya/ormkit/internal/core/query/domain"
	"github.com/satishbabariya/ormkit/internal/debug"
	"github.com/satishbabariya/ormkit/internal/runtime"
	"github.com/satishbabariya/ormkit/pkg/schema"
)

type (
	Record      = domain.Record
	Result      = domain.Result
	Operator    = domain.Operator
	Direction   = domain.Direction
	Dialect     = domain.Dialect
	Description = domain.Description
	Connector   = database.Connector
)

const (
	Eq  = domain.Eq
	Gt  = domain.Gt
	Gte = domain.Gte
	Lt  = domain.Lt
	Lte = domain.Lte

	Asc  = domain.Asc
	Desc = domain.Desc
)

var (
	ErrNotFound     = runtime.ErrNotFound
	ErrUnknownField = schema.ErrUnknownField
	ErrConfig       = runtime.ErrConfig
)

// Database binds linked models to a connector.
type Database struct {
	conn   Connector
	models *schema.Registry
	logger *slog.Logger
	debug  bool
	now    func() time.Time
}

// Option configures a Database.
type Option func(*Database)

// WithDebug logs every descriptor before it is executed.
func WithDebug(enabled bool) Option {
	return func(db *Database) {
		db.debug = enabled
	}
}

// WithLogger sets the logger used for debug output. The default is the
// process-wide debug logger.
func WithLogger(l *slog.Logger) Option {
	return func(db *Database) {
		db.logger = l
	}
}

// WithClock sets the time source for updatedAt.
func WithClock(now func() time.Time) Option {
	return func(db *Database) {
		db.now = now
	}
}

// New wraps conn. The connection is opened lazily by the first query.
func New(conn Connector, opts ...Option) (*Database, error) {
	if conn == nil {
		return nil, runtime.Configf("orm: connector is required")
	}
	if conn.Translator() == nil {
		return nil, runtime.Configf("orm: connector %s has no translator", conn.Dialect())
	}

	db := &Database{
		conn:   conn,
		models: schema.NewRegistry(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(db)
	}
	if db.logger == nil {
		db.logger = debug.Logger()
	}
	return db, nil
}

// Open builds the connector cfg describes and wraps it.
func Open(cfg config.Database, opts ...Option) (*Database, error) {
	conn, err := factory.New(cfg, nil)
	if err != nil {
		return nil, err
	}
	return New(conn, opts...)
}

// Dialect returns the connector's dialect.
func (db *Database) Dialect() Dialect { return db.conn.Dialect() }

// Connector returns the underlying connector.
func (db *Database) Connector() Connector { return db.conn }

// Link registers models, and the pivot models of their many-to-many
// relationships, with the database.
func (db *Database) Link(models ...*schema.Model) *Database {
	for _, m := range models {
		db.models.Register(m)
		db.models.Register(m.Pivots()...)
	}
	return db
}

// Models returns the linked models in link order.
func (db *Database) Models() []*schema.Model {
	return db.models.Models()
}

// SyncOptions controls Sync.
type SyncOptions struct {
	// Drop drops every linked table before creating it.
	Drop bool
	// Truncate deletes every row of every linked table after creation.
	Truncate bool
}

// Sync creates the linked tables. Referenced tables are created before the
// tables referencing them and dropped after them.
func (db *Database) Sync(ctx context.Context, opts SyncOptions) error {
	models, err := db.models.Sorted()
	if err != nil {
		return err
	}

	if opts.Drop {
		for i := len(models) - 1; i >= 0; i-- {
			m := models[i]
			if _, err := db.Query(ctx, builder.NewQueryBuilder(m.Table).Schema(m).Drop(true).Description()); err != nil {
				return err
			}
		}
	}

	for _, m := range models {
		desc := builder.NewQueryBuilder(m.Table).
			Schema(m).
			Create(m.Fields(), domain.Record(m.Defaults), m.Timestamps).
			Description()
		if _, err := db.Query(ctx, desc); err != nil {
			return err
		}
	}

	if opts.Truncate {
		for i := len(models) - 1; i >= 0; i-- {
			m := models[i]
			if _, err := db.Query(ctx, builder.NewQueryBuilder(m.Table).Schema(m).Delete().Description()); err != nil {
				return err
			}
		}
	}
	return nil
}

// Query executes desc. Rows of a descriptor carrying a schema come back keyed
// by field name.
func (db *Database) Query(ctx context.Context, desc *Description) (*Result, error) {
	if db.debug {
		db.logger.DebugContext(ctx, "orm query",
			slog.String("dialect", string(db.Dialect())),
			slog.String("type", string(desc.Type())),
			slog.String("table", desc.Table),
		)
	}

	res, err := db.conn.Query(ctx, desc)
	if err != nil {
		return nil, err
	}
	if desc.Schema != nil {
		rename(res.Rows, desc.Schema.ClientNames(db.conn.Translator().FormatFieldNameToClient))
	}
	return res, nil
}

func rename(rows []Record, names map[string]string) {
	if len(names) == 0 {
		return
	}
	for _, row := range rows {
		for from, to := range names {
			if v, ok := row[from]; ok && from != to {
				delete(row, from)
				row[to] = v
			}
		}
	}
}

// Transaction runs fn in a connector transaction. Model queries run with
// the context passed to fn join it.
func (db *Database) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.conn.Transaction(ctx, fn)
}

// Ping reports whether the backend answers.
func (db *Database) Ping(ctx context.Context) bool {
	return db.conn.Ping(ctx)
}

// Close closes the connector.
func (db *Database) Close(ctx context.Context) error {
	return db.conn.Close(ctx)
}

// Model starts a new query on m. m does not need to be linked.
func (db *Database) Model(m *schema.Model) *Query {
	return newQuery(db, m)
}
