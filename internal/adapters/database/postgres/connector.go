// Package postgres connects to PostgreSQL through lib/pq or pgx.
package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	"github.com/lib/pq"

	"github.com/satishbabariya/ormkit/internal/adapters/database"
	"github.com/satishbabariya/ormkit/internal/adapters/database/sqlconn"
	"github.com/satishbabariya/ormkit/internal/core/database/pool"
	"github.com/satishbabariya/ormkit/internal/core/query/domain"
	"github.com/satishbabariya/ormkit/internal/core/translator/sqlgen"
	"github.com/satishbabariya/ormkit/internal/runtime"
)

const (
	// DefaultPort is used when Options.Port is zero.
	DefaultPort = 5432

	DriverPQ  = "postgres"
	DriverPgx = "pgx"

	queryCanceled = "57014"
)

// Options configures a Postgres connector. URI, when set, wins over the
// individual fields.
type Options struct {
	URI      string
	Host     string
	Port     int
	Username string
	Password string
	Database string
	SSLMode  string

	// Driver is DriverPQ (default) or DriverPgx.
	Driver string

	ConnectTimeout     time.Duration
	Pooled             bool
	PoolSize           int
	ReconnectOnTimeout bool
	Logger             database.QueryLogger
}

// Connector is the Postgres connector. Inserts always read rows back.
type Connector struct {
	*sqlconn.Connector
}

// New returns an unconnected Postgres connector.
func New(opts Options) (*Connector, error) {
	drv := opts.Driver
	switch drv {
	case "":
		drv = DriverPQ
	case DriverPQ, DriverPgx:
	default:
		return nil, runtime.Configf("postgres: unknown driver %q", drv)
	}
	if opts.URI == "" && opts.Database == "" {
		return nil, runtime.Configf("postgres: database or uri is required")
	}

	tr, err := sqlgen.New(domain.Postgres, sqlgen.WithReturning(true))
	if err != nil {
		return nil, err
	}

	cfg := pool.Single()
	if opts.Pooled {
		cfg = pool.Sized(opts.PoolSize)
	}

	conn, err := sqlconn.New(sqlconn.Options{
		DriverName:         drv,
		DSN:                DSN(opts),
		Translator:         tr,
		Pool:               cfg,
		ConnectAttempts:    3,
		ReconnectOnTimeout: opts.ReconnectOnTimeout,
		IsTimeout:          IsTimeout,
		Logger:             opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &Connector{Connector: conn}, nil
}

// DSN renders opts as a postgres:// URL, which both drivers accept.
func DSN(opts Options) string {
	if opts.URI != "" {
		return opts.URI
	}

	host := opts.Host
	if host == "" {
		host = "localhost"
	}
	port := opts.Port
	if port == 0 {
		port = DefaultPort
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   "/" + opts.Database,
	}
	if opts.Username != "" {
		if opts.Password != "" {
			u.User = url.UserPassword(opts.Username, opts.Password)
		} else {
			u.User = url.User(opts.Username)
		}
	}

	q := url.Values{}
	sslmode := opts.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	q.Set("sslmode", sslmode)
	if opts.ConnectTimeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(connectTimeoutSeconds(opts.ConnectTimeout)))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// connectTimeoutSeconds rounds d up to whole seconds. libpq reads 0 as no
// timeout, so the result is at least 1.
func connectTimeoutSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// IsTimeout reports canceled statements and dropped connections from either
// driver. A caller's expired deadline is not a timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == queryCanceled
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == queryCanceled
	}
	if errors.Is(err, driver.ErrBadConn) || pgconn.Timeout(err) {
		return true
	}
	return runtime.IsTimeout(err)
}
