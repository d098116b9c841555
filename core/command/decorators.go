package command

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Permanent marks an error as not worth retrying.
// WithBackoff stops immediately when a handler returns one.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// WithBackoff wraps a handler with exponential backoff retry logic.
// Delays start at initialDelay and double up to maxDelay.
//
// Example:
//
//	handler := command.WithBackoff(
//	    command.NewHandlerFunc(triggerCallback),
//	    3,                      // max retries
//	    200*time.Millisecond,   // initial delay
//	    5*time.Second,          // max delay
//	)
func WithBackoff(handler Handler, maxRetries int, initialDelay, maxDelay time.Duration) Handler {
	return &wrappedHandler{
		name: handler.Name(),
		fn: func(ctx context.Context, payload any) error {
			var lastErr error
			delay := initialDelay

			for attempt := 0; attempt <= maxRetries; attempt++ {
				if attempt > 0 {
					timer := time.NewTimer(delay)
					select {
					case <-ctx.Done():
						timer.Stop()
						return errors.Join(lastErr, ctx.Err())
					case <-timer.C:
					}

					delay *= 2
					if delay > maxDelay {
						delay = maxDelay
					}
				}

				err := handler.Handle(ctx, payload)
				if err == nil {
					return nil
				}
				if IsPermanent(err) {
					return err
				}
				lastErr = err
			}

			return fmt.Errorf("failed after %d retries with backoff: %w", maxRetries, lastErr)
		},
	}
}

// WithTimeout bounds each handler call with its own deadline.
func WithTimeout(handler Handler, timeout time.Duration) Handler {
	return &wrappedHandler{
		name: handler.Name(),
		fn: func(ctx context.Context, payload any) error {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return handler.Handle(ctx, payload)
		},
	}
}
