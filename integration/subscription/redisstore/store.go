// Package redisstore is the Redis subscription.Registry backend.
//
// Each event owns a hash of subscriber -> JSON subscription.Record, and a set
// tracks event names that have at least one subscriber. Both are updated atomically by Lua
// scripts so the set never lists an event with an empty hash.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/eventhttp/core/logger"
	"github.com/dmitrymomot/eventhttp/core/subscription"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "eventhttp"

var subscribeScript = redis.NewScript(`
local added = redis.call("HSETNX", KEYS[1], ARGV[1], ARGV[2])
if added == 1 then
	redis.call("SADD", KEYS[2], ARGV[3])
end
return added
`)

var unsubscribeScript = redis.NewScript(`
local removed = redis.call("HDEL", KEYS[1], ARGV[1])
if removed == 1 and redis.call("HLEN", KEYS[1]) == 0 then
	redis.call("SREM", KEYS[2], ARGV[2])
end
return removed
`)

// Store implements subscription.Registry on Redis.
type Store struct {
	client redis.UniversalClient
	prefix string
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix overrides DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Store over client.
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{client: client, prefix: DefaultPrefix, logger: logger.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ subscription.Registry = (*Store)(nil)

// The hash tag keeps both keys of one call in the same cluster slot.
func (s *Store) eventKey(event string) string {
	return fmt.Sprintf("{%s}:subscriptions:%s", s.prefix, event)
}

func (s *Store) eventsKey() string {
	return fmt.Sprintf("{%s}:events", s.prefix)
}

func (s *Store) Subscribe(ctx context.Context, event, subscriber, callbackURL string) (bool, error) {
	if err := subscription.Validate(event, subscriber, callbackURL); err != nil {
		return false, err
	}

	rec, err := json.Marshal(subscription.Record{
		ID:          uuid.NewString(),
		Event:       event,
		Subscriber:  subscriber,
		CallbackURL: callbackURL,
	})
	if err != nil {
		return false, fmt.Errorf("redisstore: encode record: %w", err)
	}

	added, err := subscribeScript.Run(ctx, s.client,
		[]string{s.eventKey(event), s.eventsKey()},
		subscriber, rec, event,
	).Int()
	if err != nil {
		return false, fmt.Errorf("redisstore: subscribe: %w", err)
	}
	if added == 0 {
		s.logger.DebugContext(ctx, "subscription already exists",
			logger.Event(event), logger.Subscriber(subscriber))
		return false, nil
	}
	return true, nil
}

func (s *Store) Unsubscribe(ctx context.Context, event, subscriber string) (bool, error) {
	if err := subscription.ValidateKey(event, subscriber); err != nil {
		return false, err
	}

	removed, err := unsubscribeScript.Run(ctx, s.client,
		[]string{s.eventKey(event), s.eventsKey()},
		subscriber, event,
	).Int()
	if err != nil {
		return false, fmt.Errorf("redisstore: unsubscribe: %w", err)
	}
	return removed == 1, nil
}

func (s *Store) Events(ctx context.Context) ([]string, error) {
	events, err := s.client.SMembers(ctx, s.eventsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: events: %w", err)
	}
	if events == nil {
		events = make([]string, 0)
	}
	return events, nil
}

// Subscribers returns the event's subscriptions ordered by subscriber name.
func (s *Store) Subscribers(ctx context.Context, event string) ([]subscription.Subscription, error) {
	entries, err := s.client.HGetAll(ctx, s.eventKey(event)).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: subscribers: %w", err)
	}

	subs := make([]subscription.Subscription, 0, len(entries))
	for subscriber, raw := range entries {
		var rec subscription.Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("redisstore: decode record %s/%s: %w", event, subscriber, err)
		}
		subs = append(subs, rec.Subscription())
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Subscriber < subs[j].Subscriber })
	return subs, nil
}
