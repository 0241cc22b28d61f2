package observability

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/MicheleGuerra/SOK-Oran-Security/internal/config"
)

// TracedLogger is a structured logger with automatic trace correlation.
// It wraps slog.Logger and stamps every entry with the component name, the
// active run ID and, when a span is active, its trace and span IDs.
type TracedLogger struct {
	logger          *slog.Logger
	component       string
	runID           string
	redactSensitive bool
}

// NewTracedLogger creates a new TracedLogger writing through handler.
func NewTracedLogger(handler slog.Handler, component string) *TracedLogger {
	return &TracedLogger{
		logger:          slog.New(handler),
		component:       component,
		redactSensitive: true,
	}
}

// NopLogger returns a TracedLogger that discards everything.
func NopLogger(component string) *TracedLogger {
	return NewTracedLogger(slog.NewTextHandler(io.Discard, nil), component)
}

// WithRunID returns a copy of the logger bound to an extraction run.
func (l *TracedLogger) WithRunID(runID string) *TracedLogger {
	cp := *l
	cp.runID = runID
	return &cp
}

// Debug logs without redaction; debug output is for local troubleshooting.
func (l *TracedLogger) Debug(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).Debug(msg, args...)
}

// Info logs at info level, redacting sensitive arguments.
func (l *TracedLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.redactSensitive {
		args = redactSensitiveData(args)
	}
	l.WithContext(ctx).Info(msg, args...)
}

// Warn logs at warn level, redacting sensitive arguments.
func (l *TracedLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.redactSensitive {
		args = redactSensitiveData(args)
	}
	l.WithContext(ctx).Warn(msg, args...)
}

// Error logs at error level, redacting sensitive arguments.
func (l *TracedLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.redactSensitive {
		args = redactSensitiveData(args)
	}
	l.WithContext(ctx).Error(msg, args...)
}

// WithContext returns a slog.Logger carrying component, run and trace fields.
func (l *TracedLogger) WithContext(ctx context.Context) *slog.Logger {
	logger := l.logger.With(slog.String("component", l.component))
	if l.runID != "" {
		logger = logger.With(slog.String("run_id", l.runID))
	}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		spanCtx := span.SpanContext()
		logger = logger.With(
			slog.String("trace_id", spanCtx.TraceID().String()),
			slog.String("span_id", spanCtx.SpanID().String()),
		)
	}

	return logger
}

// Slog exposes the underlying logger for libraries that take *slog.Logger.
func (l *TracedLogger) Slog() *slog.Logger {
	return l.logger.With(slog.String("component", l.component))
}

// NewJSONHandler creates a JSON log handler with the specified output and level.
func NewJSONHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
}

// NewTextHandler creates a human-readable text log handler.
func NewTextHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})
}

// NewHandler builds the process log handler from configuration.
func NewHandler(w io.Writer, cfg config.LoggingConfig) slog.Handler {
	level := ParseLevel(cfg.Level)
	if strings.EqualFold(cfg.Format, "json") {
		return NewJSONHandler(w, level)
	}
	return NewTextHandler(w, level)
}

// ParseLevel maps a config level name to slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var sensitiveFields = map[string]bool{
	"prompt":     true,
	"prompts":    true,
	"apikey":     true,
	"secret":     true,
	"password":   true,
	"token":      true,
	"credential": true,
	"secretkey":  true,
}

// redactSensitiveData replaces values of sensitive keys with "[REDACTED]".
// Keys are matched case-insensitively with underscores ignored, so "api_key"
// and "APIKey" both match.
func redactSensitiveData(args []any) []any {
	if len(args)%2 != 0 {
		return args
	}

	redacted := make([]any, len(args))
	copy(redacted, args)

	for i := 0; i < len(args); i += 2 {
		if key, ok := args[i].(string); ok {
			normalizedKey := strings.ToLower(strings.ReplaceAll(key, "_", ""))
			if sensitiveFields[normalizedKey] {
				redacted[i+1] = "[REDACTED]"
			}
		}
	}

	return redacted
}
