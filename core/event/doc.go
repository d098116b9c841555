// Package event provides a synchronous, type-safe in-process event bus.
//
// Integration events received over HTTP are decoded into their bound Go type
// and dispatched here, where local handlers react to them.
//
// # Core Components
//
// Event represents a domain event with metadata (ID, Name, Payload, CreatedAt).
//
// Handler processes events through a type-safe interface. Handlers can be created
// from functions with automatic type inference using NewHandlerFunc, or with an
// explicit event name using NewHandler.
//
// Bus routes a payload to every handler subscribed to its type name. Handlers run
// in subscription order; a failing or panicking handler does not stop the others,
// and all failures are joined into the returned error.
//
// # Basic Usage
//
//	type OrderPaid struct {
//	    OrderID string `json:"orderId"`
//	}
//
//	bus := event.NewBus(event.WithBusLogger(log))
//	bus.Subscribe(event.NewHandlerFunc(func(ctx context.Context, e OrderPaid) error {
//	    return ship(ctx, e.OrderID)
//	}))
//
//	if err := bus.Dispatch(ctx, OrderPaid{OrderID: "42"}); err != nil {
//	    // one or more handlers failed
//	}
//
// # Event Naming
//
// Event names are the bare type name with pointers unwrapped, so OrderPaid and
// *OrderPaid share handlers. Use NewHandler and Bus.DispatchNamed when the wire
// name differs from the Go type name.
//
// # Strict Mode
//
// By default dispatching an event nobody listens for is a no-op. WithStrict turns
// that into ErrNoHandlers.
//
// # Context Metadata
//
// During dispatch the context carries a Metadata value: event ID, name,
// creation time and processing start time. Read it with MetadataFrom or the
// EventID, EventName, EventTime and StartProcessingTime shorthands. An ID or
// creation time preset with WithMetadata survives dispatch.
package event
