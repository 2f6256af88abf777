package logger

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// Attribute keys shared by every request-scoped log line.
const (
	KeyRequestID = "request_id"
	KeyUsername  = "usuario"
	KeySchool    = "escuela"
)

// NewContext returns ctx carrying l as the request logger.
func NewContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// With returns ctx carrying the context logger extended with fields.
func With(ctx context.Context, fields ...any) context.Context {
	return NewContext(ctx, From(ctx).With(fields...))
}

// WithRequestID tags every later log line of the request with its id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return With(ctx, KeyRequestID, id)
}

// WithUsername tags the request logger with the authenticated user.
func WithUsername(ctx context.Context, username string) context.Context {
	return With(ctx, KeyUsername, username)
}

// From returns the logger stored in ctx, or the process logger.
func From(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
			return l
		}
	}
	return LoggerWrapper()
}
