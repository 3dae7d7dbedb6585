// Package log provides slog handlers.
package log

import (
	"context"
	"log/slog"
)

type contextKey string

const (
	operationKey contextKey = "operation"
	stepKey      contextKey = "step"

	// AttrOperation and AttrStep are the attribute keys stamped onto records
	// by ContextHandler.
	AttrOperation = "operation"
	AttrStep      = "step"
)

// WithOperation returns a context carrying the name of the provisioning
// operation in flight, e.g. "add-course".
func WithOperation(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, operationKey, name)
}

// WithStep returns a context carrying the current step of the operation.
// Workflows set it before each externally visible side effect so a partial
// failure names the step it died in.
func WithStep(ctx context.Context, step string) context.Context {
	return context.WithValue(ctx, stepKey, step)
}

// ContextHandler adds values from the [context.Context] to the [slog.Record].
// The wrapped [slog.Handler] is passed to the [slog.Logger] used throughout
// the tool. Not every log call happens inside a provisioning operation, so
// missing context values are fine.
type ContextHandler struct {
	slog.Handler
}

func New(handler slog.Handler) *ContextHandler {
	return &ContextHandler{Handler: handler}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.Handler.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if op, ok := ctx.Value(operationKey).(string); ok {
		r.AddAttrs(slog.String(AttrOperation, op))
	}
	if step, ok := ctx.Value(stepKey).(string); ok {
		r.AddAttrs(slog.String(AttrStep, step))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return New(h.Handler.WithAttrs(attrs))
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return New(h.Handler.WithGroup(name))
}
