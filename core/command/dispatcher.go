package command

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/eventhttp/core/logger"
)

// Dispatcher routes commands to their handlers through a transport.
//
// Example:
//
//	dispatcher := command.NewDispatcher(
//	    command.WithLogger(log),
//	    command.WithMiddleware(command.LoggingMiddleware(log)),
//	)
//	dispatcher.Register(command.NewHandlerFunc(subscribeRemote))
//	err := dispatcher.Dispatch(ctx, SubscribeRemote{Event: "OrderPaid"})
type Dispatcher struct {
	handlers     map[string]Handler
	middleware   []Middleware
	transport    Transport
	newTransport func(*Dispatcher) Transport
	errorHandler func(context.Context, string, error)
	logger       *slog.Logger
	mu           sync.RWMutex
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// NewDispatcher creates a new command dispatcher.
// Without a transport option commands run synchronously.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		handlers: make(map[string]Handler),
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.newTransport == nil {
		d.transport = newSyncTransport(d.getHandler)
	} else {
		d.transport = d.newTransport(d)
	}

	return d
}

// Register registers a handler for a command type.
// Panics if a handler is already registered for the command.
func (d *Dispatcher) Register(handlers ...Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, handler := range handlers {
		name := handler.Name()
		if _, exists := d.handlers[name]; exists {
			panic(fmt.Sprintf("%s: %s", ErrDuplicateHandler, name))
		}
		d.handlers[name] = handler
	}
}

// Dispatch sends a command for execution via the configured transport.
//
// With the sync transport it blocks and returns the handler error.
// With the channel transport it returns once the command is queued.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd any) error {
	if cmd == nil {
		return fmt.Errorf("%w: nil command", ErrInvalidPayload)
	}
	name := nameOf(cmd)

	if CommandID(ctx) == "" {
		ctx = WithCommandID(ctx, uuid.New().String())
	}
	ctx = WithCommandName(ctx, name)

	return d.transport.Dispatch(ctx, name, cmd)
}

// Stop gracefully shuts down the dispatcher.
// For the channel transport it waits for queued commands to finish.
func (d *Dispatcher) Stop() {
	type stopper interface {
		Stop()
	}
	if s, ok := d.transport.(stopper); ok {
		s.Stop()
	}
}

// getHandler retrieves a handler by command name with middleware applied.
func (d *Dispatcher) getHandler(name string) (Handler, bool) {
	d.mu.RLock()
	handler, exists := d.handlers[name]
	middleware := d.middleware
	d.mu.RUnlock()

	if !exists {
		return nil, false
	}
	if len(middleware) > 0 {
		handler = chainMiddleware(handler, middleware)
	}
	return handler, true
}

// WithSyncTransport executes commands in the caller's goroutine. This is the default.
func WithSyncTransport() Option {
	return func(d *Dispatcher) {
		d.newTransport = func(d *Dispatcher) Transport {
			return newSyncTransport(d.getHandler)
		}
	}
}

// WithChannelTransport queues commands on a buffered channel served by workers.
// Call Stop for graceful shutdown.
//
// Example:
//
//	dispatcher := command.NewDispatcher(
//	    command.WithChannelTransport(256, command.WithWorkers(4)),
//	    command.WithErrorHandler(onError),
//	)
//	defer dispatcher.Stop()
func WithChannelTransport(bufferSize int, opts ...ChannelOption) Option {
	return func(d *Dispatcher) {
		d.newTransport = func(d *Dispatcher) Transport {
			return newChannelTransport(bufferSize, d.getHandler, d.errorHandler, d.logger, opts...)
		}
	}
}

// WithErrorHandler sets a callback for errors from asynchronously executed commands.
func WithErrorHandler(handler func(context.Context, string, error)) Option {
	return func(d *Dispatcher) {
		d.errorHandler = handler
	}
}

// WithLogger sets the logger for the dispatcher.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithMiddleware appends middleware applied to all handlers in the order provided.
func WithMiddleware(middleware ...Middleware) Option {
	return func(d *Dispatcher) {
		d.middleware = append(d.middleware, middleware...)
	}
}
