// Package factory builds the connector a configuration names.
package factory

import (
	"github.com/satishbabariya/ormkit/internal/adapters/database"
	"github.com/satishbabariya/ormkit/internal/adapters/database/mongodb"
	"github.com/satishbabariya/ormkit/internal/adapters/database/mysql"
	"github.com/satishbabariya/ormkit/internal/adapters/database/postgres"
	"github.com/satishbabariya/ormkit/internal/adapters/database/sqlite"
	"github.com/satishbabariya/ormkit/internal/config"
	"github.com/satishbabariya/ormkit/internal/core/query/domain"
	"github.com/satishbabariya/ormkit/internal/runtime"
)

// New validates cfg and returns an unconnected connector for its dialect.
// logger may be nil.
func New(cfg config.Database, logger database.QueryLogger) (database.Connector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch domain.Dialect(cfg.Dialect) {
	case domain.SQLite:
		return connector(sqlite.New(sqlite.Options{
			Filepath:           cfg.Filepath,
			ReturnOnInsert:     cfg.ReturnOnInsert,
			Pooled:             cfg.Pooled,
			PoolSize:           cfg.PoolSize,
			ReconnectOnTimeout: cfg.ReconnectOnTimeout,
			BusyTimeout:        cfg.BusyTimeout,
			Logger:             logger,
		}))
	case domain.MySQL:
		return connector(mysql.New(mysql.Options{
			Host:               cfg.Host,
			Port:               cfg.Port,
			Username:           cfg.Username,
			Password:           cfg.Password,
			Database:           cfg.Database,
			Charset:            cfg.Charset,
			ConnectTimeout:     cfg.ConnectTimeout,
			Pooled:             cfg.Pooled,
			PoolSize:           cfg.PoolSize,
			ReconnectOnTimeout: cfg.ReconnectOnTimeout,
			Logger:             logger,
		}))
	case domain.Postgres:
		return connector(postgres.New(postgres.Options{
			URI:                cfg.URI,
			Host:               cfg.Host,
			Port:               cfg.Port,
			Username:           cfg.Username,
			Password:           cfg.Password,
			Database:           cfg.Database,
			SSLMode:            cfg.SSLMode,
			Driver:             cfg.Driver,
			ConnectTimeout:     cfg.ConnectTimeout,
			Pooled:             cfg.Pooled,
			PoolSize:           cfg.PoolSize,
			ReconnectOnTimeout: cfg.ReconnectOnTimeout,
			Logger:             logger,
		}))
	case domain.Mongo:
		opts := mongodb.Options{
			URI:                cfg.URI,
			Hosts:              cfg.Hosts,
			Database:           cfg.Database,
			Username:           cfg.Username,
			Password:           cfg.Password,
			ConnectTimeout:     cfg.ConnectTimeout,
			ReconnectOnTimeout: cfg.ReconnectOnTimeout,
			Logger:             logger,
		}
		if cfg.Pooled && cfg.PoolSize > 0 {
			opts.MaxPoolSize = uint64(cfg.PoolSize)
		}
		return connector(mongodb.New(opts))
	}
	return nil, runtime.Configf("unknown dialect %q", cfg.Dialect)
}

func connector[C database.Connector](c C, err error) (database.Connector, error) {
	if err != nil {
		return nil, err
	}
	return c, nil
}
