// Package logger provides structured logging functionality for the application.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Options controls how the application logger is built.
type Options struct {
	// Level is the minimum level to log: debug, info, warn, or error.
	Level string

	// Pretty selects colorized human-readable output instead of JSON.
	// Intended for local development.
	Pretty bool
}

// Setup initializes the application's logging system. It creates a structured
// logger with the configured level, sets it as the process default, and
// returns it. Production output is JSON on stdout; with Pretty set, output is
// colorized text via tint.
func Setup(opts Options) (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToLower(opts.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
		tmp := slog.New(slog.NewTextHandler(os.Stderr, nil))
		tmp.Warn("invalid log level configured, using default level",
			"configured_level", opts.Level,
			"default_level", "info")
	}

	var handler slog.Handler
	if opts.Pretty {
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.RFC3339,
		})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log, nil
}

// loggerKey is the context key under which a request-scoped logger is stored.
type loggerKey struct{}

// WithLogger returns a context carrying the given logger. Middleware uses
// this to attach request-scoped attributes (request ID, user ID) that
// downstream code picks up via FromContext.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, log)
}

// FromContext returns the logger stored in the context, or the process
// default logger if none is set.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if log, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return log
		}
	}
	return slog.Default()
}

// FromContextOrDefault returns the logger stored in the context, falling back
// to the provided logger rather than the process default. Components use this
// to keep their own attributes when no request-scoped logger is present.
func FromContextOrDefault(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if ctx != nil {
		if log, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return log
		}
	}
	if fallback != nil {
		return fallback
	}
	return slog.Default()
}
