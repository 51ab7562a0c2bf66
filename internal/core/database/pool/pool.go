// Package pool wraps database/sql handles with sizing and a background
// health check.
package pool

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/satishbabariya/ormkit/internal/debug"
)

// Config holds connection pool configuration.
type Config struct {
	// MaxOpenConns is the maximum number of open connections (0 = unlimited).
	MaxOpenConns int `mapstructure:"max_open_conns"`
	// MaxIdleConns is the maximum number of idle connections.
	MaxIdleConns int `mapstructure:"max_idle_conns"`
	// ConnMaxLifetime is the maximum lifetime of a connection.
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	// ConnMaxIdleTime is the maximum idle time of a connection.
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	// HealthCheckInterval is how often to ping; zero disables the check.
	HealthCheckInterval time.Duration `mapstructure:"health_check_interval"`
}

// DefaultConfig returns the pooled defaults.
func DefaultConfig() Config {
	return Config{
		MaxOpenConns:        10,
		MaxIdleConns:        5,
		ConnMaxLifetime:     30 * time.Minute,
		ConnMaxIdleTime:     10 * time.Minute,
		HealthCheckInterval: time.Minute,
	}
}

// Single returns a configuration that keeps exactly one connection, so
// statements are serialized.
func Single() Config {
	return Config{MaxOpenConns: 1, MaxIdleConns: 1}
}

// Sized returns DefaultConfig with n connections. n < 1 means Single.
func Sized(n int) Config {
	if n < 1 {
		return Single()
	}
	c := DefaultConfig()
	c.MaxOpenConns = n
	if c.MaxIdleConns > n {
		c.MaxIdleConns = n
	}
	return c
}

// Pool owns a *sql.DB.
type Pool struct {
	db     *sql.DB
	config Config
	driver string

	mu              sync.RWMutex
	failedChecks    int64
	lastHealthCheck time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// New opens a pool. It does not dial; call HealthCheck to verify the target.
func New(driverName, dataSourceName string, config Config) (*Pool, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		db:     db,
		config: config,
		driver: driverName,
		ctx:    ctx,
		cancel: cancel,
	}

	if config.HealthCheckInterval > 0 {
		p.wg.Add(1)
		go p.healthCheckLoop()
	}

	return p, nil
}

// DB returns the underlying *sql.DB.
func (p *Pool) DB() *sql.DB {
	return p.db
}

// Config returns the configuration the pool was opened with.
func (p *Pool) Config() Config {
	return p.config
}

// Stats represents pool statistics.
type Stats struct {
	MaxOpenConnections int
	OpenConnections    int
	InUse              int
	Idle               int
	WaitCount          int64
	WaitDuration       time.Duration
	FailedHealthChecks int64
	LastHealthCheck    time.Time
}

// Stats returns current pool statistics.
func (p *Pool) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := p.db.Stats()
	return Stats{
		MaxOpenConnections: p.config.MaxOpenConns,
		OpenConnections:    s.OpenConnections,
		InUse:              s.InUse,
		Idle:               s.Idle,
		WaitCount:          s.WaitCount,
		WaitDuration:       s.WaitDuration,
		FailedHealthChecks: p.failedChecks,
		LastHealthCheck:    p.lastHealthCheck,
	}
}

// HealthCheck pings the database.
func (p *Pool) HealthCheck(ctx context.Context) error {
	p.mu.Lock()
	p.lastHealthCheck = time.Now()
	p.mu.Unlock()

	if err := p.db.PingContext(ctx); err != nil {
		p.mu.Lock()
		p.failedChecks++
		p.mu.Unlock()
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

func (p *Pool) healthCheckLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(p.ctx, 5*time.Second)
			if err := p.HealthCheck(ctx); err != nil {
				debug.Warn("pool health check", "driver", p.driver, "error", err)
			}
			cancel()
		}
	}
}

// Close stops the health check and closes the handle. Repeated calls are
// no-ops.
func (p *Pool) Close() error {
	var err error
	p.once.Do(func() {
		p.cancel()
		p.wg.Wait()
		err = p.db.Close()
	})
	return err
}
