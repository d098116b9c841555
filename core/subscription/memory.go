package subscription

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/eventhttp/core/logger"
)

// MemoryRegistry is the volatile Registry backend.
// State lives in a nested map event -> subscriber -> callback URL and is lost
// on restart. Safe for concurrent use.
type MemoryRegistry struct {
	mu     sync.RWMutex
	subs   map[string]map[string]string
	logger *slog.Logger
}

// MemoryOption configures a MemoryRegistry.
type MemoryOption func(*MemoryRegistry)

// WithMemoryLogger sets the logger used for debug output.
func WithMemoryLogger(l *slog.Logger) MemoryOption {
	return func(r *MemoryRegistry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewMemoryRegistry creates an empty in-memory registry.
func NewMemoryRegistry(opts ...MemoryOption) *MemoryRegistry {
	r := &MemoryRegistry{
		subs:   make(map[string]map[string]string),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Subscribe implements Registry.
func (r *MemoryRegistry) Subscribe(ctx context.Context, event, subscriber, callbackURL string) (bool, error) {
	if err := Validate(event, subscriber, callbackURL); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	bySubscriber, ok := r.subs[event]
	if !ok {
		bySubscriber = make(map[string]string)
		r.subs[event] = bySubscriber
	}
	if _, exists := bySubscriber[subscriber]; exists {
		r.logger.DebugContext(ctx, "subscription already exists",
			logger.Event(event), logger.Subscriber(subscriber))
		return false, nil
	}

	bySubscriber[subscriber] = callbackURL
	r.logger.DebugContext(ctx, "subscription created",
		logger.Event(event), logger.Subscriber(subscriber), logger.CallbackURL(callbackURL))
	return true, nil
}

// Unsubscribe implements Registry.
// The event entry is dropped once its last subscriber leaves.
func (r *MemoryRegistry) Unsubscribe(ctx context.Context, event, subscriber string) (bool, error) {
	if err := ValidateKey(event, subscriber); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	bySubscriber, ok := r.subs[event]
	if !ok {
		return false, nil
	}
	if _, exists := bySubscriber[subscriber]; !exists {
		return false, nil
	}

	delete(bySubscriber, subscriber)
	if len(bySubscriber) == 0 {
		delete(r.subs, event)
	}
	r.logger.DebugContext(ctx, "subscription removed",
		logger.Event(event), logger.Subscriber(subscriber))
	return true, nil
}

// Events implements Registry.
func (r *MemoryRegistry) Events(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := make([]string, 0, len(r.subs))
	for event, bySubscriber := range r.subs {
		if len(bySubscriber) > 0 {
			events = append(events, event)
		}
	}
	return events, nil
}

// Subscribers implements Registry.
func (r *MemoryRegistry) Subscribers(ctx context.Context, event string) ([]Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bySubscriber := r.subs[event]
	result := make([]Subscription, 0, len(bySubscriber))
	for subscriber, callbackURL := range bySubscriber {
		result = append(result, Subscription{
			Event:       event,
			Subscriber:  subscriber,
			CallbackURL: callbackURL,
		})
	}
	return result, nil
}

// Healthcheck always succeeds; it exists so every backend can be probed the same way.
func (r *MemoryRegistry) Healthcheck(ctx context.Context) error {
	return ctx.Err()
}
