package pikodb

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
)

// Logger wraps slog.Logger with pikodb-specific context.
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
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithCollection adds a collection field to the logger.
func (l *Logger) WithCollection(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("collection", name),
	}
}

// LogCreate logs a collection creation.
func (l *Logger) LogCreate(ctx context.Context, collection string, cfg IndexConfig, err error) {
	if err != nil {
		l.ErrorContext(ctx, "create collection failed",
			"collection", collection,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "collection created",
			"collection", collection,
			"embedding", cfg.Embedding.String(),
			"dimension", cfg.Dimension(),
			"build_quality", cfg.BuildQuality.String(),
		)
	}
}

// LogConfigDrift logs a create call whose config differs from the stored one.
func (l *Logger) LogConfigDrift(ctx context.Context, collection string, existing, requested IndexConfig) {
	l.WarnContext(ctx, "collection exists with a different config, keeping the stored one",
		"collection", collection,
		"existing_embedding", existing.Embedding.String(),
		"existing_build_quality", existing.BuildQuality.String(),
		"requested_embedding", requested.Embedding.String(),
		"requested_build_quality", requested.BuildQuality.String(),
	)
}

// LogUpsert logs a batch upsert.
func (l *Logger) LogUpsert(ctx context.Context, collection string, count, applied int, err error) {
	if err != nil {
		l.WarnContext(ctx, "upsert stopped at first failure",
			"collection", collection,
			"count", count,
			"applied", applied,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "upsert completed",
			"collection", collection,
			"count", count,
		)
	}
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, collection string, limit, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"collection", collection,
			"limit", limit,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"collection", collection,
			"limit", limit,
			"results", resultsFound,
		)
	}
}

// LogPersist logs a snapshot save. bytes is the approximate raw size of
// the saved points.
func (l *Logger) LogPersist(ctx context.Context, collections, points int, bytes uint64, took time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"collections", collections,
			"points", humanize.Comma(int64(points)),
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "snapshot saved",
			"collections", collections,
			"points", humanize.Comma(int64(points)),
			"bytes", humanize.Bytes(bytes),
			"took", took,
		)
	}
}

// LogLoad logs a snapshot load and index rebuild.
func (l *Logger) LogLoad(ctx context.Context, collections, points int, took time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot load failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot loaded",
			"collections", collections,
			"points", humanize.Comma(int64(points)),
			"took", took,
		)
	}
}
