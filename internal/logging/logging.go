// Package logging builds the process logger and carries request-scoped
// loggers through a context.
package logging

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

type ctxKey struct{}

// New returns a JSON production logger when environment is "production"
// and a human-readable development logger otherwise.
func New(environment string) (*zap.Logger, error) {
	if strings.EqualFold(strings.TrimSpace(environment), "production") {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// WithLogger returns a copy of ctx carrying l.
func WithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored in ctx, or fallback when there is none.
// A nil fallback resolves to the global zap logger.
func FromContext(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok && l != nil {
			return l
		}
	}
	if fallback != nil {
		return fallback
	}
	return zap.L()
}
