// Package mysql connects to MySQL and MariaDB through go-sql-driver/mysql.
package mysql

import (
	"database/sql/driver"
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/satishbabariya/ormkit/internal/adapters/database"
	"github.com/satishbabariya/ormkit/internal/adapters/database/sqlconn"
	"github.com/satishbabariya/ormkit/internal/core/database/pool"
	"github.com/satishbabariya/ormkit/internal/core/query/domain"
	"github.com/satishbabariya/ormkit/internal/core/translator/sqlgen"
	"github.com/satishbabariya/ormkit/internal/runtime"
)

// DefaultPort is used when Options.Port is zero.
const DefaultPort = 3306

// Options configures a MySQL connector.
type Options struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string
	Charset  string
	Params   map[string]string

	ConnectTimeout     time.Duration
	Pooled             bool
	PoolSize           int
	ReconnectOnTimeout bool
	Logger             database.QueryLogger
}

// Connector is the MySQL connector.
type Connector struct {
	*sqlconn.Connector
}

// New returns an unconnected MySQL connector.
func New(opts Options) (*Connector, error) {
	if opts.Database == "" {
		return nil, runtime.Configf("mysql: database is required")
	}

	tr, err := sqlgen.New(domain.MySQL)
	if err != nil {
		return nil, err
	}

	cfg := pool.Single()
	if opts.Pooled {
		cfg = pool.Sized(opts.PoolSize)
	}

	conn, err := sqlconn.New(sqlconn.Options{
		DriverName:         "mysql",
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

// DSN renders opts as a go-sql-driver DSN. Time columns are parsed into
// time.Time.
func DSN(opts Options) string {
	host := opts.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := opts.Port
	if port == 0 {
		port = DefaultPort
	}

	cfg := mysql.NewConfig()
	cfg.User = opts.Username
	cfg.Passwd = opts.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	cfg.DBName = opts.Database
	cfg.ParseTime = true
	cfg.Timeout = opts.ConnectTimeout
	if len(opts.Params) > 0 || opts.Charset != "" {
		cfg.Params = map[string]string{}
		for k, v := range opts.Params {
			cfg.Params[k] = v
		}
		if opts.Charset != "" {
			cfg.Params["charset"] = opts.Charset
		}
	}
	return cfg.FormatDSN()
}

// Lock wait timeout and statement timeout.
var timeoutCodes = map[uint16]bool{1205: true, 3024: true}

// IsTimeout reports broken connections and server-side timeouts.
func IsTimeout(err error) bool {
	if errors.Is(err, mysql.ErrInvalidConn) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var merr *mysql.MySQLError
	if errors.As(err, &merr) {
		return timeoutCodes[merr.Number]
	}
	return runtime.IsTimeout(err)
}
