package command

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/eventhttp/core/logger"
)

// Middleware wraps a Handler to add cross-cutting functionality.
type Middleware func(next Handler) Handler

// wrappedHandler is a Handler backed by a closure. Used by middleware and decorators.
type wrappedHandler struct {
	name string
	fn   func(ctx context.Context, payload any) error
}

func (h *wrappedHandler) Name() string {
	return h.name
}

func (h *wrappedHandler) Handle(ctx context.Context, payload any) error {
	return h.fn(ctx, payload)
}

// LoggingMiddleware returns a middleware that logs command execution.
func LoggingMiddleware(log *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return &wrappedHandler{
			name: next.Name(),
			fn: func(ctx context.Context, payload any) error {
				start := time.Now()
				log.DebugContext(ctx, "command started", logger.Command(next.Name()))

				err := next.Handle(ctx, payload)
				if err != nil {
					log.ErrorContext(ctx, "command failed",
						logger.Command(next.Name()),
						logger.Duration(time.Since(start)),
						logger.Error(err))
					return err
				}

				log.DebugContext(ctx, "command completed",
					logger.Command(next.Name()),
					logger.Duration(time.Since(start)))
				return nil
			},
		}
	}
}
