package streetsearch

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with streetsearch-specific context.
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

// WithQuery adds a query field to the logger.
func (l *Logger) WithQuery(q string) *Logger {
	return &Logger{
		Logger: l.Logger.With("query", q),
	}
}

// WithLocation adds a location field to the logger.
func (l *Logger) WithLocation(id uint32) *Logger {
	return &Logger{
		Logger: l.Logger.With("location", id),
	}
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, query string, segments, matches int, degraded bool, err error) {
	switch {
	case err != nil:
		l.ErrorContext(ctx, "search failed",
			"query", query,
			"error", err,
		)
	case degraded:
		l.WarnContext(ctx, "search completed with missing shards",
			"query", query,
			"segments", segments,
			"matches", matches,
		)
	default:
		l.DebugContext(ctx, "search completed",
			"query", query,
			"segments", segments,
			"matches", matches,
		)
	}
}

// LogShardFetch logs a shard fetch.
func (l *Logger) LogShardFetch(ctx context.Context, kind, name string, bytes int, err error) {
	if err != nil {
		l.WarnContext(ctx, "shard fetch failed",
			"kind", kind,
			"name", name,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "shard fetched",
			"kind", kind,
			"name", name,
			"bytes", bytes,
		)
	}
}

// LogManifest logs a manifest load.
func (l *Logger) LogManifest(ctx context.Context, tags int, err error) {
	if err != nil {
		l.WarnContext(ctx, "manifest load failed; suggestions and fuzzy search degraded",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "manifest loaded",
			"tags", tags,
		)
	}
}

// LogLocations logs a catalog load.
func (l *Logger) LogLocations(ctx context.Context, locations, dropped int, err error) {
	switch {
	case err != nil:
		l.ErrorContext(ctx, "location catalog load failed",
			"error", err,
		)
	case dropped > 0:
		l.WarnContext(ctx, "location catalog loaded with dropped records",
			"locations", locations,
			"dropped", dropped,
		)
	default:
		l.InfoContext(ctx, "location catalog loaded",
			"locations", locations,
		)
	}
}

// LogPrefetch logs an eager prefetch decision.
func (l *Logger) LogPrefetch(ctx context.Context, reason string, matches, shards int) {
	l.DebugContext(ctx, "detail prefetch",
		"reason", reason,
		"matches", matches,
		"shards", shards,
	)
}
