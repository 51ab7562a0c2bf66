// Package debug provides the process-wide log/slog logger used by connectors
// and the CLI.
package debug

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/satishbabariya/ormkit/internal/runtime"
)

var (
	logger  = discard()
	enabled bool
	mu      sync.RWMutex
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// Init enables or disables debug output on stderr.
func Init(enable bool) {
	InitWriter(enable, os.Stderr)
}

// InitWriter is Init with an explicit destination.
func InitWriter(enable bool, w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	enabled = enable
	if !enable {
		logger = discard()
		return
	}
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// SetLogger replaces the logger. A nil logger disables output.
func SetLogger(l *slog.Logger) {
	mu.Lock()
	defer mu.Unlock()

	if l == nil {
		logger, enabled = discard(), false
		return
	}
	logger, enabled = l, true
}

// Enabled returns whether debug logging is enabled
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Debug(msg string, args ...any) { current().Debug(msg, args...) }
func Info(msg string, args ...any)  { current().Info(msg, args...) }
func Warn(msg string, args ...any)  { current().Warn(msg, args...) }
func Error(msg string, args ...any) { current().Error(msg, args...) }

// With returns a logger with the given attributes
func With(args ...any) *slog.Logger {
	return current().With(args...)
}

// Logger returns the underlying slog.Logger instance
func Logger() *slog.Logger {
	return current()
}

// Statement logs one executed statement. The trace id stored in ctx, if any,
// is attached.
func Statement(ctx context.Context, dialect, statement string, args []any, elapsed time.Duration, err error) {
	l := current()
	if !l.Enabled(ctx, slog.LevelDebug) {
		return
	}

	attrs := []any{
		slog.String("dialect", dialect),
		slog.String("query", statement),
		slog.Any("args", args),
		slog.Duration("elapsed", elapsed),
	}
	if id, ok := runtime.TraceIDFromContext(ctx); ok {
		attrs = append(attrs, slog.String("trace_id", id))
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	l.DebugContext(ctx, "query", attrs...)
}
