package command

import "errors"

var (
	// ErrHandlerNotFound is returned when a command has no registered handler.
	ErrHandlerNotFound = errors.New("no handler registered for command")

	// ErrDuplicateHandler is reported when a second handler is registered for a command.
	ErrDuplicateHandler = errors.New("handler already registered for command")

	// ErrInvalidPayload is returned when a handler receives a payload of the wrong type.
	ErrInvalidPayload = errors.New("invalid command payload")

	// ErrBufferFull is returned when the channel transport cannot accept more commands.
	ErrBufferFull = errors.New("command buffer is full")

	// ErrTransportStopped is returned when dispatching after Stop.
	ErrTransportStopped = errors.New("command transport stopped")

	// ErrHandlerPanicked is returned when a handler panics.
	ErrHandlerPanicked = errors.New("command handler panicked")
)
