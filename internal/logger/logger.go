// Package logger provides structured logging for the S3Explorer core on top of
// log/slog, with request-scoped fields (profile, bucket, operation) threaded
// through context.Context.
package logger

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

// Config controls the global logger.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))
}

// Init reconfigures the global logger. Safe to call once at startup.
func Init(cfg Config) {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	current.Store(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// L returns the current global logger.
func L() *slog.Logger {
	return current.Load()
}

// FromCtx returns a logger enriched with the LogContext fields present on ctx,
// falling back to the global logger when ctx carries none.
func FromCtx(ctx context.Context) *slog.Logger {
	l := L()
	lc := FromContext(ctx)
	if lc == nil {
		return l
	}
	if lc.RequestID != "" {
		l = l.With("request_id", lc.RequestID)
	}
	if lc.ProfileID != "" {
		l = l.With("profile_id", lc.ProfileID)
	}
	if lc.Bucket != "" {
		l = l.With("bucket", lc.Bucket)
	}
	if lc.Operation != "" {
		l = l.With("operation", lc.Operation)
	}
	return l
}
