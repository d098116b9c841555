package event

import "errors"

var (
	// ErrNoHandlers is returned in strict mode when no handlers are registered for an event.
	ErrNoHandlers = errors.New("no handlers registered for event")

	// ErrNilPayload is returned when Dispatch receives a nil payload.
	ErrNilPayload = errors.New("event payload is nil")

	// ErrUnexpectedPayload is returned when a handler cannot convert the payload to its type.
	ErrUnexpectedPayload = errors.New("unexpected payload type")

	// ErrHandlerPanicked is returned when a handler panics during dispatch.
	ErrHandlerPanicked = errors.New("event handler panicked")
)
