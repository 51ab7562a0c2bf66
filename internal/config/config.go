// Package config loads connection settings from .ormkit.yaml, ORMKIT_*
// environment variables and .env files.
package config

import (
	"time"

	"github.com/satishbabariya/ormkit/internal/core/query/domain"
	"github.com/satishbabariya/ormkit/internal/runtime"
)

// Config holds the application configuration
type Config struct {
	Database Database `mapstructure:"database" yaml:"database"`
	Debug    bool     `mapstructure:"debug" yaml:"debug"`
}

// Database describes one backend. Which fields matter depends on Dialect.
type Database struct {
	Dialect string `mapstructure:"dialect" yaml:"dialect"`

	// sqlite3
	Filepath       string        `mapstructure:"filepath" yaml:"filepath,omitempty"`
	ReturnOnInsert bool          `mapstructure:"return_on_insert" yaml:"return_on_insert,omitempty"`
	BusyTimeout    time.Duration `mapstructure:"busy_timeout" yaml:"busy_timeout,omitempty"`

	// network backends
	URI      string   `mapstructure:"uri" yaml:"uri,omitempty"`
	Host     string   `mapstructure:"host" yaml:"host,omitempty"`
	Port     int      `mapstructure:"port" yaml:"port,omitempty"`
	Hosts    []string `mapstructure:"hosts" yaml:"hosts,omitempty"`
	Username string   `mapstructure:"username" yaml:"username,omitempty"`
	Password string   `mapstructure:"password" yaml:"password,omitempty"`
	Database string   `mapstructure:"database" yaml:"database,omitempty"`
	SSLMode  string   `mapstructure:"ssl_mode" yaml:"ssl_mode,omitempty"`
	Charset  string   `mapstructure:"charset" yaml:"charset,omitempty"`
	// Driver picks the postgres driver: "postgres" (lib/pq) or "pgx".
	Driver string `mapstructure:"driver" yaml:"driver,omitempty"`

	Pooled             bool          `mapstructure:"pooled" yaml:"pooled"`
	PoolSize           int           `mapstructure:"pool_size" yaml:"pool_size"`
	ReconnectOnTimeout bool          `mapstructure:"reconnect_on_timeout" yaml:"reconnect_on_timeout"`
	ConnectTimeout     time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout,omitempty"`
}

// Dialects lists the accepted Database.Dialect values.
var Dialects = []domain.Dialect{domain.SQLite, domain.MySQL, domain.Postgres, domain.Mongo}

// Validate checks that the fields the dialect needs are present.
func (d Database) Validate() error {
	switch domain.Dialect(d.Dialect) {
	case domain.SQLite:
		if d.Filepath == "" {
			return runtime.Configf("sqlite3 needs database.filepath")
		}
	case domain.MySQL:
		if d.Database == "" {
			return runtime.Configf("mysql needs database.database")
		}
	case domain.Postgres:
		if d.Database == "" && d.URI == "" {
			return runtime.Configf("postgres needs database.database or database.uri")
		}
	case domain.Mongo:
		if d.Database == "" {
			return runtime.Configf("mongo needs database.database")
		}
		if d.URI == "" && len(d.Hosts) == 0 {
			return runtime.Configf("mongo needs database.uri or database.hosts")
		}
	default:
		return runtime.Configf("unknown dialect %q", d.Dialect)
	}
	if d.PoolSize < 0 {
		return runtime.Configf("database.pool_size must not be negative")
	}
	return nil
}
