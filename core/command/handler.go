package command

import (
	"context"
	"fmt"
)

// Handler defines the interface for command handlers.
// Each handler processes a specific command type.
type Handler interface {
	// Name returns the unique command name this handler processes.
	Name() string

	// Handle executes the handler with the given command payload.
	Handle(ctx context.Context, payload any) error
}

// HandlerFunc is a generic handler for commands of type T.
// The command name is derived from T.
type HandlerFunc[T any] struct {
	name string
	fn   func(context.Context, T) error
}

// NewHandlerFunc creates a new type-safe command handler.
//
// Example:
//
//	handler := command.NewHandlerFunc(func(ctx context.Context, cmd TriggerCallback) error {
//	    return sender.Send(ctx, cmd.CallbackURL, cmd.Payload)
//	})
func NewHandlerFunc[T any](fn func(context.Context, T) error) Handler {
	return &HandlerFunc[T]{
		name: typeName[T](),
		fn:   fn,
	}
}

// Name returns the command name this handler processes.
func (h *HandlerFunc[T]) Name() string {
	return h.name
}

// Handle executes the handler with the given payload.
// Pointer payloads are dereferenced for value handlers.
func (h *HandlerFunc[T]) Handle(ctx context.Context, payload any) error {
	switch cmd := payload.(type) {
	case T:
		return h.fn(ctx, cmd)
	case *T:
		if cmd != nil {
			return h.fn(ctx, *cmd)
		}
	}
	return fmt.Errorf("%w: expected %s, got %T", ErrInvalidPayload, h.name, payload)
}
