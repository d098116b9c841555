package command

import (
	"context"
	"fmt"
)

// Transport defines how commands are dispatched and executed.
type Transport interface {
	// Dispatch sends a command for execution.
	// Returns an error if dispatch fails (e.g., buffer full, handler not found).
	Dispatch(ctx context.Context, cmdName string, payload any) error
}

// envelope carries a queued command through the channel transport.
type envelope struct {
	ctx     context.Context
	name    string
	payload any
}

// syncTransport executes commands in the caller's goroutine and returns the handler error.
type syncTransport struct {
	getHandler func(string) (Handler, bool)
}

func newSyncTransport(getHandler func(string) (Handler, bool)) *syncTransport {
	return &syncTransport{getHandler: getHandler}
}

func (t *syncTransport) Dispatch(ctx context.Context, cmdName string, payload any) error {
	handler, exists := t.getHandler(cmdName)
	if !exists {
		return fmt.Errorf("%w: %s", ErrHandlerNotFound, cmdName)
	}
	return safeHandle(ctx, handler, payload)
}
