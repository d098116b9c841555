package event

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
)

// eventNameCache caches reflection results for event name lookups.
var eventNameCache sync.Map

// getEventName extracts the type name from an event value, unwrapping any pointer types.
//
// Returns only the bare type name without package path (e.g., "OrderPaid").
// Both billing.OrderPaid and shipping.OrderPaid resolve to the same name and
// reach the same handlers.
func getEventName(v any) string {
	if v == nil {
		return ""
	}
	return nameOf(reflect.TypeOf(v))
}

func typeName[T any]() string {
	return nameOf(reflect.TypeFor[T]())
}

func nameOf(t reflect.Type) string {
	if name, ok := eventNameCache.Load(t); ok {
		return name.(string)
	}

	original := t
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	name := t.Name()
	if name == "" {
		name = t.String()
	}

	eventNameCache.Store(original, name)
	return name
}

// Name returns the name a payload is dispatched under.
func Name(payload any) string {
	return getEventName(payload)
}

func unmarshalPayload[T any](payload any) (T, error) {
	var zero T

	// Direct type match
	if v, ok := payload.(T); ok {
		return v, nil
	}

	// Pointer to T handed to a value handler
	if p, ok := payload.(*T); ok && p != nil {
		return *p, nil
	}

	// Raw JSON
	if data, ok := payload.([]byte); ok {
		var evt T
		if err := json.Unmarshal(data, &evt); err != nil {
			return zero, fmt.Errorf("failed to unmarshal event: %w", err)
		}
		return evt, nil
	}

	// Generic JSON object (e.g. Event.Payload decoded without a concrete type)
	if m, ok := payload.(map[string]any); ok {
		data, err := json.Marshal(m)
		if err != nil {
			return zero, fmt.Errorf("failed to marshal map payload: %w", err)
		}
		var evt T
		if err := json.Unmarshal(data, &evt); err != nil {
			return zero, fmt.Errorf("failed to unmarshal map payload: %w", err)
		}
		return evt, nil
	}

	return zero, fmt.Errorf("%w: %T", ErrUnexpectedPayload, payload)
}

// chainMiddleware applies multiple middleware in order.
// The first middleware in the slice is the outermost (executed first).
func chainMiddleware(handler Handler, middleware []Middleware) Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		handler = middleware[i](handler)
	}
	return handler
}

// safeHandle executes a handler with panic recovery.
func safeHandle(ctx context.Context, handler Handler, payload any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: handler %s: %v", ErrHandlerPanicked, handler.EventName(), r)
		}
	}()
	return handler.Handle(ctx, payload)
}
