package adapter

import (
	"errors"
	"fmt"
)

var (
	ErrUnresolvedType  = errors.New("event type not registered")
	ErrDecodePayload   = errors.New("failed to decode event payload")
	ErrRemoteRejected  = errors.New("remote operation rejected")
	ErrNoCommandBus    = errors.New("command dispatcher not configured")
	ErrInvalidBinding  = errors.New("invalid event binding")
	ErrPublishNoSource = errors.New("publish requires an event name")
	ErrRegistryPanic   = errors.New("registry panicked")
)

// Kind classifies why a delivery failed.
type Kind string

const (
	KindUnresolvedType   Kind = "unresolved-type"
	KindDecodeError      Kind = "decode-error"
	KindInterceptorError Kind = "interceptor-error"
	KindDispatchError    Kind = "dispatch-error"
	KindPanic            Kind = "panic"
)

// DeliveryError describes a failed delivery. Consume reduces it to false.
type DeliveryError struct {
	Kind  Kind
	Event string
	Err   error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver %s: %s: %v", e.Event, e.Kind, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

func deliveryError(kind Kind, event string, err error) *DeliveryError {
	return &DeliveryError{Kind: kind, Event: event, Err: err}
}
