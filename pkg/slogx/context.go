package slogx

import (
	"context"
	"log/slog"
)

type loggerKey struct{}

// WithContext stores the logger in the context so downstream code can log
// with the request attributes already attached.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger stored by WithContext, falling back to the
// process default when the context carries none. Never returns nil, so
// callers can chain directly.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	return slog.Default()
}
