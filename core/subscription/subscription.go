package subscription

import (
	"context"
	"strings"
)

// Subscription identifies one consumer's interest in one event.
type Subscription struct {
	Event       string `json:"event"`
	Subscriber  string `json:"subscriber"`
	CallbackURL string `json:"callbackUrl"`
}

// Registry records (event, subscriber, callback) triples.
// Implementations must keep at most one Subscription per (event, subscriber) pair.
type Registry interface {
	// Subscribe stores the triple and reports true if no subscription for
	// (event, subscriber) exists yet. It reports false and changes nothing otherwise.
	Subscribe(ctx context.Context, event, subscriber, callbackURL string) (bool, error)

	// Unsubscribe removes the subscription for (event, subscriber) and reports true,
	// or reports false if there was none.
	Unsubscribe(ctx context.Context, event, subscriber string) (bool, error)

	// Events returns the distinct event names that have at least one subscriber.
	// Order is not guaranteed.
	Events(ctx context.Context) ([]string, error)

	// Subscribers returns every subscription of the event, or an empty slice.
	Subscribers(ctx context.Context, event string) ([]Subscription, error)
}

// Record is the persisted shape of a Subscription used by durable backends.
type Record struct {
	ID          string `json:"id" bson:"_id,omitempty"`
	Event       string `json:"event" bson:"event"`
	Subscriber  string `json:"subscriber" bson:"subscriber"`
	CallbackURL string `json:"callbackUrl" bson:"callback_url"`
	// Version is carried for forward compatibility only. Backends write 0 and
	// never interpret it.
	Version int `json:"version" bson:"version"`
}

// Subscription converts the record to its public form.
func (r Record) Subscription() Subscription {
	return Subscription{
		Event:       r.Event,
		Subscriber:  r.Subscriber,
		CallbackURL: r.CallbackURL,
	}
}

// ValidateKey checks the (event, subscriber) key shared by all registry operations.
func ValidateKey(event, subscriber string) error {
	if strings.TrimSpace(event) == "" {
		return ErrEmptyEvent
	}
	if strings.TrimSpace(subscriber) == "" {
		return ErrEmptySubscriber
	}
	return nil
}

// Validate checks all arguments of Subscribe.
func Validate(event, subscriber, callbackURL string) error {
	if err := ValidateKey(event, subscriber); err != nil {
		return err
	}
	if strings.TrimSpace(callbackURL) == "" {
		return ErrEmptyCallbackURL
	}
	return nil
}
