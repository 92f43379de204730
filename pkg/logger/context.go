package logger

import (
	"context"
	"log/slog"
)

type ctxKey string

const fieldsKey ctxKey = "logFields"

// With records request-scoped fields on ctx. Repeated calls accumulate.
func With(ctx context.Context, fields ...any) context.Context {
	prev, _ := ctx.Value(fieldsKey).([]any)
	merged := make([]any, 0, len(prev)+len(fields))
	merged = append(merged, prev...)
	merged = append(merged, fields...)
	return context.WithValue(ctx, fieldsKey, merged)
}

// From returns base, or the process logger when base is nil, carrying the
// fields recorded on ctx.
func From(ctx context.Context, base *slog.Logger) *slog.Logger {
	if base == nil {
		base = LoggerWrapper()
	}
	if ctx == nil {
		return base
	}
	if fields, ok := ctx.Value(fieldsKey).([]any); ok && len(fields) > 0 {
		return base.With(fields...)
	}
	return base
}
