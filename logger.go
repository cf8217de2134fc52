package memory

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with memory-specific context and per-operation
// helpers that record duration and error uniformly.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler. A nil handler falls
// back to a text handler writing to stderr at info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that emits JSON-formatted log lines.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NewTextLogger creates a Logger that emits human-readable text lines.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NoopLogger creates a Logger that discards all output.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.Level(1000)}))}
}

// LogIngest logs an ingest operation.
func (l *Logger) LogIngest(ctx context.Context, textLen int, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "ingest failed", "text_len", textLen, "duration", d, "error", err)
		return
	}
	l.DebugContext(ctx, "ingest completed", "text_len", textLen, "duration", d)
}

// LogSearch logs a search operation, including the funnel's candidate
// counts at each stage.
func (l *Logger) LogSearch(ctx context.Context, topK, stage1Survivors, stage2Survivors, resultsFound int, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed", "top_k", topK, "duration", d, "error", err)
		return
	}
	l.DebugContext(ctx, "search completed",
		"top_k", topK,
		"stage1_survivors", stage1Survivors,
		"stage2_survivors", stage2Survivors,
		"results", resultsFound,
		"duration", d,
	)
}

// LogDelete logs a delete operation.
func (l *Logger) LogDelete(ctx context.Context, deleted int, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed", "duration", d, "error", err)
		return
	}
	l.DebugContext(ctx, "delete completed", "deleted", deleted, "duration", d)
}

// LogRPC logs one handled JSON-RPC request.
func (l *Logger) LogRPC(ctx context.Context, method string, d time.Duration, err error) {
	if err != nil {
		l.WarnContext(ctx, "rpc request failed", "method", method, "duration", d, "error", err)
		return
	}
	l.DebugContext(ctx, "rpc request completed", "method", method, "duration", d)
}
