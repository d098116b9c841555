// Package mongostore is the MongoDB subscription.Registry backend.
//
// A unique compound index on (event, subscriber) enforces at most one
// subscription per pair; duplicate key errors on insert map to false.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/eventhttp/core/logger"
	"github.com/dmitrymomot/eventhttp/core/subscription"
)

// DefaultCollection is the collection used when none is configured.
const DefaultCollection = "integration_event_subscriptions"

// Store implements subscription.Registry on MongoDB.
type Store struct {
	coll   *mongo.Collection
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*storeOptions)

type storeOptions struct {
	collection string
	logger     *slog.Logger
}

// WithCollection overrides DefaultCollection.
func WithCollection(name string) Option {
	return func(o *storeOptions) {
		if name != "" {
			o.collection = name
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *storeOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// New creates a Store in db and ensures the unique index exists.
func New(ctx context.Context, db *mongo.Database, opts ...Option) (*Store, error) {
	o := storeOptions{collection: DefaultCollection, logger: logger.Discard()}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Store{coll: db.Collection(o.collection), logger: o.logger}
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "event", Value: 1}, {Key: "subscriber", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("event_subscriber_unique"),
	})
	if err != nil {
		return nil, fmt.Errorf("mongostore: create index: %w", err)
	}
	return s, nil
}

var _ subscription.Registry = (*Store)(nil)

func (s *Store) Subscribe(ctx context.Context, event, subscriber, callbackURL string) (bool, error) {
	if err := subscription.Validate(event, subscriber, callbackURL); err != nil {
		return false, err
	}

	_, err := s.coll.InsertOne(ctx, subscription.Record{
		ID:          uuid.NewString(),
		Event:       event,
		Subscriber:  subscriber,
		CallbackURL: callbackURL,
	})
	if mongo.IsDuplicateKeyError(err) {
		s.logger.DebugContext(ctx, "subscription already exists",
			logger.Event(event), logger.Subscriber(subscriber))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("mongostore: subscribe: %w", err)
	}
	return true, nil
}

func (s *Store) Unsubscribe(ctx context.Context, event, subscriber string) (bool, error) {
	if err := subscription.ValidateKey(event, subscriber); err != nil {
		return false, err
	}

	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "event", Value: event}, {Key: "subscriber", Value: subscriber}})
	if err != nil {
		return false, fmt.Errorf("mongostore: unsubscribe: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (s *Store) Events(ctx context.Context) ([]string, error) {
	events := make([]string, 0)
	if err := s.coll.Distinct(ctx, "event", bson.D{}).Decode(&events); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return events, nil
		}
		return nil, fmt.Errorf("mongostore: events: %w", err)
	}
	return events, nil
}

func (s *Store) Subscribers(ctx context.Context, event string) ([]subscription.Subscription, error) {
	cur, err := s.coll.Find(ctx,
		bson.D{{Key: "event", Value: event}},
		options.Find().SetSort(bson.D{{Key: "subscriber", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("mongostore: subscribers: %w", err)
	}

	var records []subscription.Record
	if err := cur.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("mongostore: subscribers: %w", err)
	}

	subs := make([]subscription.Subscription, 0, len(records))
	for _, rec := range records {
		subs = append(subs, rec.Subscription())
	}
	return subs, nil
}
