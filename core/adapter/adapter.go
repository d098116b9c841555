package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/eventhttp/core/logger"
	"github.com/dmitrymomot/eventhttp/core/subscription"
	"github.com/dmitrymomot/eventhttp/pkg/placeholder"
)

// EventBus receives decoded payloads for in-process handling.
type EventBus interface {
	Dispatch(ctx context.Context, payload any) error
}

// CommandDispatcher sends outbound commands such as SubscribeRequest.
type CommandDispatcher interface {
	Dispatch(ctx context.Context, cmd any) error
}

// Adapter connects the subscription registry, the event bus and the HTTP
// callbacks of integration events.
type Adapter struct {
	cfg          Config
	registry     subscription.Registry
	bus          EventBus
	commands     CommandDispatcher
	bindings     []Binding
	pending      []orderedInterceptor
	interceptors []Interceptor
	resolver     *placeholder.Resolver
	metrics      *Metrics
	logger       *slog.Logger

	candidates []candidate

	mu          sync.RWMutex
	descriptors map[string]descriptor
	// owned holds the subscriptions this instance created, keyed by event.
	owned map[string]descriptor
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithBindings adds event bindings processed by Register.
func WithBindings(bindings ...Binding) Option {
	return func(a *Adapter) {
		a.bindings = append(a.bindings, bindings...)
	}
}

// WithInterceptor adds an interceptor with an explicit order. Lower runs first.
func WithInterceptor(i Interceptor, order int) Option {
	return func(a *Adapter) {
		a.pending = append(a.pending, orderedInterceptor{Interceptor: i, order: order})
	}
}

// WithInterceptors adds interceptors at LowestPriority.
func WithInterceptors(is ...Interceptor) Option {
	return func(a *Adapter) {
		for _, i := range is {
			a.pending = append(a.pending, orderedInterceptor{Interceptor: i, order: LowestPriority})
		}
	}
}

// WithCommandDispatcher sets the dispatcher used for remote registration.
func WithCommandDispatcher(d CommandDispatcher) Option {
	return func(a *Adapter) {
		a.commands = d
	}
}

// WithResolver replaces the environment-backed placeholder resolver.
func WithResolver(r *placeholder.Resolver) Option {
	return func(a *Adapter) {
		if r != nil {
			a.resolver = r
		}
	}
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(a *Adapter) {
		a.metrics = m
	}
}

// WithLogger sets the adapter logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates an Adapter. Interceptor order is fixed here.
func New(cfg Config, registry subscription.Registry, bus EventBus, opts ...Option) *Adapter {
	a := &Adapter{
		cfg:         cfg,
		registry:    registry,
		bus:         bus,
		resolver:    placeholder.New(),
		logger:      logger.Discard(),
		descriptors: make(map[string]descriptor),
		owned:       make(map[string]descriptor),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.interceptors = sortInterceptors(a.pending)
	a.pending = nil
	a.prepare()
	return a
}

// candidate is one binding after placeholder resolution.
type candidate struct {
	target string
	skip   bool
	desc   descriptor
	err    error
}

// prepare resolves every binding and fills the event lookup used by Consume,
// so deliveries decode before Register has touched the registry.
// A later binding for the same event replaces the earlier one.
func (a *Adapter) prepare() {
	a.candidates = make([]candidate, 0, len(a.bindings))
	for _, b := range a.bindings {
		if b.skipped() {
			a.candidates = append(a.candidates, candidate{target: b.Target, skip: true})
			continue
		}
		d, err := a.resolve(b)
		a.candidates = append(a.candidates, candidate{target: b.Target, desc: d, err: err})
		if err == nil {
			a.descriptors[d.event] = d
		}
	}
}

// CallbackURL is the consume endpoint advertised to producers.
func (a *Adapter) CallbackURL() string {
	return a.cfg.CallbackURL()
}

// Registry returns the subscription registry the adapter writes to.
func (a *Adapter) Registry() subscription.Registry {
	return a.registry
}

// Events lists the event names the adapter can decode.
func (a *Adapter) Events() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	names := make([]string, 0, len(a.descriptors))
	for name := range a.descriptors {
		names = append(names, name)
	}
	return names
}

func (a *Adapter) lookup(event string) (descriptor, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	d, ok := a.descriptors[event]
	return d, ok
}

func (a *Adapter) resolve(b Binding) (descriptor, error) {
	subscriber := a.resolver.Resolve(b.Subscriber)
	if subscriber == "" {
		subscriber = a.cfg.AppName
	}

	event, sourceURL, remote, err := parseTarget(a.resolver.Resolve(b.Target))
	if err != nil {
		return descriptor{}, err
	}
	if b.decode == nil {
		return descriptor{}, fmt.Errorf("%w: %s has no payload type", ErrInvalidBinding, event)
	}

	return descriptor{
		event:       event,
		subscriber:  subscriber,
		remote:      remote,
		sourceURL:   sourceURL,
		callbackURL: a.cfg.CallbackURL(),
		typ:         b.typ,
		decode:      b.decode,
	}, nil
}

func (a *Adapter) logAttrs(d descriptor) []any {
	return []any{
		logger.Event(d.event),
		logger.Subscriber(d.subscriber),
		logger.CallbackURL(d.callbackURL),
	}
}
