package event

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/eventhttp/core/logger"
)

// Middleware wraps a Handler to add additional functionality.
type Middleware func(Handler) Handler

// middlewareHandler wraps a Handler with additional functionality.
type middlewareHandler struct {
	name string
	fn   func(ctx context.Context, payload any) error
}

func (h *middlewareHandler) EventName() string {
	return h.name
}

func (h *middlewareHandler) Handle(ctx context.Context, payload any) error {
	return h.fn(ctx, payload)
}

// LoggingMiddleware logs event handler execution with timing.
//
// Example:
//
//	bus := event.NewBus(
//	    event.WithMiddleware(event.LoggingMiddleware(log)),
//	)
func LoggingMiddleware(log *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return &middlewareHandler{
			name: next.EventName(),
			fn: func(ctx context.Context, payload any) error {
				start := time.Now()
				log.DebugContext(ctx, "event handler started",
					logger.Event(next.EventName()))

				err := next.Handle(ctx, payload)
				if err != nil {
					log.ErrorContext(ctx, "event handler failed",
						logger.Event(next.EventName()),
						logger.Duration(time.Since(start)),
						logger.Error(err))
					return err
				}

				log.DebugContext(ctx, "event handler completed",
					logger.Event(next.EventName()),
					logger.Duration(time.Since(start)))
				return nil
			},
		}
	}
}
