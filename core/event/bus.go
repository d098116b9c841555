package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/eventhttp/core/logger"
)

// Bus is a synchronous in-process event bus.
// Handlers run in subscription order on the caller's goroutine.
type Bus struct {
	mu         sync.RWMutex
	handlers   map[string][]Handler
	middleware []Middleware
	strict     bool
	logger     *slog.Logger
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithBusLogger sets the logger for the bus.
func WithBusLogger(l *slog.Logger) BusOption {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithMiddleware adds middleware applied to every subscribed handler.
func WithMiddleware(mw ...Middleware) BusOption {
	return func(b *Bus) {
		b.middleware = append(b.middleware, mw...)
	}
}

// WithStrict makes Dispatch fail with ErrNoHandlers when nothing listens for an event.
func WithStrict() BusOption {
	return func(b *Bus) {
		b.strict = true
	}
}

// NewBus creates a new event bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers handlers. Several handlers may listen for the same event.
func (b *Bus) Subscribe(handlers ...Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, h := range handlers {
		name := h.EventName()
		b.handlers[name] = append(b.handlers[name], chainMiddleware(h, b.middleware))
		b.logger.Debug("event handler subscribed", logger.Event(name))
	}
}

// HasHandlers reports whether any handler listens for the named event.
func (b *Bus) HasHandlers(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[name]) > 0
}

// Dispatch delivers payload to every handler subscribed to its type name.
// All handlers run even when some fail; their errors are joined.
func (b *Bus) Dispatch(ctx context.Context, payload any) error {
	if payload == nil {
		return ErrNilPayload
	}
	return b.DispatchNamed(ctx, getEventName(payload), payload)
}

// DispatchNamed delivers payload to handlers subscribed under name.
func (b *Bus) DispatchNamed(ctx context.Context, name string, payload any) error {
	if payload == nil {
		return ErrNilPayload
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[name]...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		if b.strict {
			return fmt.Errorf("%w: %s", ErrNoHandlers, name)
		}
		b.logger.DebugContext(ctx, "no handlers for event", logger.Event(name))
		return nil
	}

	ctx = dispatchContext(ctx, name, time.Now(), uuid.NewString)

	var errs []error
	for _, h := range handlers {
		if err := safeHandle(ctx, h, payload); err != nil {
			errs = append(errs, fmt.Errorf("handler for %s failed: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
