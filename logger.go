package kohonen

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/kohonen/training"
)

// Logger wraps slog.Logger with kohonen-specific context.
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
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithRunID adds a run_id field to the logger.
func (l *Logger) WithRunID(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("run_id", id),
	}
}

// WithConfigID adds a config_id field to the logger.
func (l *Logger) WithConfigID(id uint32) *Logger {
	return &Logger{
		Logger: l.Logger.With("config_id", id),
	}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogUpload logs an image upload.
func (l *Logger) LogUpload(ctx context.Context, name string, id uint32, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "upload failed",
			"name", name,
			"size", size,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "upload completed",
			"name", name,
			"id", id,
			"size", size,
		)
	}
}

// LogVectorize logs a vectorization run.
func (l *Logger) LogVectorize(ctx context.Context, images, dimension int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "vectorization failed",
			"images", images,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "vectorization completed",
			"images", images,
			"dimension", dimension,
			"elapsed", elapsed,
		)
	}
}

// LogTrain logs the end of a training run.
func (l *Logger) LogTrain(ctx context.Context, res *training.Result, err error) {
	if err != nil {
		l.ErrorContext(ctx, "training failed",
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "training finished",
		"state", res.State.String(),
		"iterations", res.Iterations,
		"dm", res.DM,
		"elapsed", res.Elapsed,
	)
}

// LogDelete logs a delete operation.
func (l *Logger) LogDelete(ctx context.Context, kind string, id uint32, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed",
			"kind", kind,
			"id", id,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "delete completed",
			"kind", kind,
			"id", id,
		)
	}
}

// LogExport logs a vector export.
func (l *Logger) LogExport(ctx context.Context, rows int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "export failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "export completed",
			"rows", rows,
		)
	}
}
