package vsceval

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with evaluation-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// WithMetric adds a metric field to the logger.
func (l *Logger) WithMetric(metric string) *Logger {
	return &Logger{
		Logger: l.Logger.With("metric", metric),
	}
}

// LogSearch logs a capped search operation.
func (l *Logger) LogSearch(ctx context.Context, queries, results int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"queries", queries,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"queries", queries,
			"results", results,
		)
	}
}

// LogScore logs a scoring operation.
func (l *Logger) LogScore(ctx context.Context, candidates int, microAP float64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "scoring failed",
			"candidates", candidates,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "scoring completed",
			"candidates", candidates,
			"micro_ap", microAP,
		)
	}
}
