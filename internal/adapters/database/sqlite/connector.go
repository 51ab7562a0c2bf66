// Package sqlite connects to SQLite3 files through mattn/go-sqlite3.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-version"
	"github.com/mattn/go-sqlite3"
	"github.com/mitchellh/go-homedir"

	"github.com/satishbabariya/ormkit/internal/adapters/database"
	"github.com/satishbabariya/ormkit/internal/adapters/database/sqlconn"
	"github.com/satishbabariya/ormkit/internal/core/database/pool"
	"github.com/satishbabariya/ormkit/internal/core/query/domain"
	"github.com/satishbabariya/ormkit/internal/core/translator/sqlgen"
	"github.com/satishbabariya/ormkit/internal/runtime"
)

// MinReturningVersion is the first SQLite release with INSERT ... RETURNING.
var MinReturningVersion = version.Must(version.NewVersion("3.35.0"))

// Options configures a SQLite connector.
type Options struct {
	// Filepath is the database file. A leading ~ is expanded; ":memory:"
	// opens a private in-memory database.
	Filepath string

	// ReturnOnInsert reads inserted rows back with RETURNING.
	ReturnOnInsert bool

	Pooled             bool
	PoolSize           int
	ReconnectOnTimeout bool
	BusyTimeout        time.Duration
	Logger             database.QueryLogger
}

// Connector is the SQLite connector.
type Connector struct {
	*sqlconn.Connector
}

// New returns an unconnected SQLite connector.
func New(opts Options) (*Connector, error) {
	if opts.Filepath == "" {
		return nil, runtime.Configf("sqlite: filepath is required")
	}
	path, err := homedir.Expand(opts.Filepath)
	if err != nil {
		return nil, runtime.Configf("sqlite: %v", err)
	}

	tr, err := sqlgen.New(domain.SQLite, sqlgen.WithReturning(opts.ReturnOnInsert))
	if err != nil {
		return nil, err
	}

	memory := path == ":memory:"
	cfg := pool.Single()
	if opts.Pooled && !memory {
		cfg = pool.Sized(opts.PoolSize)
	}

	conn, err := sqlconn.New(sqlconn.Options{
		DriverName:         "sqlite3",
		DSN:                DSN(path, opts.BusyTimeout),
		Translator:         tr,
		Pool:               cfg,
		ReconnectOnTimeout: opts.ReconnectOnTimeout && !memory, // a fresh pool would be an empty database
		IsTimeout:          IsTimeout,
		OnConnect:          onConnect(opts.ReturnOnInsert),
		Logger:             opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &Connector{Connector: conn}, nil
}

// DSN appends the driver parameters ormkit relies on to path.
func DSN(path string, busyTimeout time.Duration) string {
	params := url.Values{}
	params.Set("_foreign_keys", "1")
	if busyTimeout > 0 {
		params.Set("_busy_timeout", strconv.FormatInt(busyTimeout.Milliseconds(), 10))
	}
	return path + "?" + params.Encode()
}

func onConnect(returning bool) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		if !returning {
			return nil
		}
		var v string
		if err := db.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&v); err != nil {
			return fmt.Errorf("read sqlite version: %w", err)
		}
		ok, err := SupportsReturning(v)
		if err != nil {
			return err
		}
		if !ok {
			return runtime.Configf("sqlite %s does not support RETURNING (need %s)", v, MinReturningVersion)
		}
		return nil
	}
}

// SupportsReturning reports whether SQLite version v supports RETURNING.
func SupportsReturning(v string) (bool, error) {
	parsed, err := version.NewVersion(v)
	if err != nil {
		return false, fmt.Errorf("parse sqlite version %q: %w", v, err)
	}
	return parsed.GreaterThanOrEqual(MinReturningVersion), nil
}

// IsTimeout reports busy and locked database errors.
func IsTimeout(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrBusy || serr.Code == sqlite3.ErrLocked
	}
	return runtime.IsTimeout(err)
}
