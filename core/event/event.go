package event

import (
	"time"

	"github.com/google/uuid"
)

// Event represents a domain event with metadata and payload.
type Event struct {
	ID        string    `json:"id"`         // Unique identifier for the event
	Name      string    `json:"name"`       // Event type name (e.g., "OrderPaid")
	Payload   any       `json:"payload"`    // Event data
	CreatedAt time.Time `json:"created_at"` // When the event was created
}

// NewEvent creates a new Event with auto-generated ID and timestamp.
// The event name is derived from the payload type.
//
// Example:
//
//	type OrderPaid struct {
//	    OrderID string
//	}
//
//	evt := event.NewEvent(OrderPaid{OrderID: "42"})
//	// evt.Name == "OrderPaid"
func NewEvent(payload any) Event {
	return Event{
		ID:        uuid.New().String(),
		Name:      getEventName(payload),
		Payload:   payload,
		CreatedAt: time.Now(),
	}
}
