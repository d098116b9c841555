package command

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/eventhttp/core/logger"
)

// channelTransport executes commands asynchronously on worker goroutines.
// Dispatch never blocks: a full buffer yields ErrBufferFull.
type channelTransport struct {
	ch           chan envelope
	getHandler   func(string) (Handler, bool)
	errorHandler func(context.Context, string, error)
	logger       *slog.Logger
	workers      int

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
	once    sync.Once
}

// ChannelOption configures the channel transport.
type ChannelOption func(*channelTransport)

// WithWorkers sets the number of worker goroutines. Default is 1.
func WithWorkers(n int) ChannelOption {
	return func(t *channelTransport) {
		if n > 0 {
			t.workers = n
		}
	}
}

func newChannelTransport(
	bufferSize int,
	getHandler func(string) (Handler, bool),
	errorHandler func(context.Context, string, error),
	log *slog.Logger,
	opts ...ChannelOption,
) *channelTransport {
	t := &channelTransport{
		ch:           make(chan envelope, max(bufferSize, 0)),
		getHandler:   getHandler,
		errorHandler: errorHandler,
		logger:       log,
		workers:      1,
	}
	for _, opt := range opts {
		opt(t)
	}

	for range t.workers {
		t.wg.Add(1)
		go t.worker()
	}

	return t
}

// Dispatch enqueues a command. The handler runs with a context that keeps
// the caller's values but not its cancellation.
func (t *channelTransport) Dispatch(ctx context.Context, cmdName string, payload any) error {
	if _, exists := t.getHandler(cmdName); !exists {
		return fmt.Errorf("%w: %s", ErrHandlerNotFound, cmdName)
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.stopped {
		return ErrTransportStopped
	}

	env := envelope{
		ctx:     context.WithoutCancel(ctx),
		name:    cmdName,
		payload: payload,
	}

	select {
	case t.ch <- env:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("%w: %s", ErrBufferFull, cmdName)
	}
}

func (t *channelTransport) worker() {
	defer t.wg.Done()
	for env := range t.ch {
		t.handle(env)
	}
}

func (t *channelTransport) handle(env envelope) {
	handler, exists := t.getHandler(env.name)
	if !exists {
		t.fail(env.ctx, env.name, fmt.Errorf("%w: %s", ErrHandlerNotFound, env.name))
		return
	}
	if err := safeHandle(env.ctx, handler, env.payload); err != nil {
		t.fail(env.ctx, env.name, err)
	}
}

func (t *channelTransport) fail(ctx context.Context, name string, err error) {
	if t.errorHandler != nil {
		t.errorHandler(ctx, name, err)
		return
	}
	t.logger.ErrorContext(ctx, "async command failed", logger.Command(name), logger.Error(err))
}

// Stop closes the queue and waits for workers to drain it.
func (t *channelTransport) Stop() {
	t.once.Do(func() {
		t.mu.Lock()
		t.stopped = true
		close(t.ch)
		t.mu.Unlock()

		t.wg.Wait()
		t.logger.Debug("channel transport stopped")
	})
}
