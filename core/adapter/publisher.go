package adapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/eventhttp/core/logger"
	"github.com/dmitrymomot/eventhttp/core/subscription"
	"github.com/dmitrymomot/eventhttp/pkg/async"
	"github.com/dmitrymomot/eventhttp/pkg/placeholder"
)

// Publisher fans an outgoing integration event out to every registered subscriber.
type Publisher struct {
	registry subscription.Registry
	commands CommandDispatcher
	resolver *placeholder.Resolver
	logger   *slog.Logger
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithPublisherResolver replaces the environment-backed placeholder resolver.
func WithPublisherResolver(r *placeholder.Resolver) PublisherOption {
	return func(p *Publisher) {
		if r != nil {
			p.resolver = r
		}
	}
}

// WithPublisherLogger sets the publisher logger.
func WithPublisherLogger(l *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPublisher creates a Publisher. commands must handle CallbackTriggerRequest.
func NewPublisher(registry subscription.Registry, commands CommandDispatcher, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		registry: registry,
		commands: commands,
		resolver: placeholder.New(),
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish resolves destination (placeholders expanded, anything after "@"
// dropped) and dispatches one CallbackTriggerRequest per subscriber in the
// background. The future completes once every trigger has been handed to
// the command dispatcher.
func (p *Publisher) Publish(ctx context.Context, destination, id string, payload any) *async.ExecFuture {
	event, _, _ := strings.Cut(p.resolver.Resolve(destination), "@")
	event = strings.TrimSpace(event)

	return async.Exec(ctx, event, func(ctx context.Context, event string) error {
		if event == "" {
			return ErrPublishNoSource
		}

		subs, err := p.registry.Subscribers(ctx, event)
		if err != nil {
			p.logger.ErrorContext(ctx, "integration event publish failed",
				logger.Event(event), logger.EventID(id), logger.Error(err))
			return err
		}

		var errs []error
		for _, s := range subs {
			if err := p.commands.Dispatch(ctx, CallbackTriggerRequest{
				CallbackURL: s.CallbackURL,
				UUID:        id,
				Event:       event,
				Payload:     payload,
			}); err != nil {
				errs = append(errs, err)
				p.logger.ErrorContext(ctx, "callback trigger dispatch failed",
					logger.Event(event),
					logger.EventID(id),
					logger.Subscriber(s.Subscriber),
					logger.Error(err))
			}
		}

		p.logger.DebugContext(ctx, "integration event published",
			logger.Event(event), logger.EventID(id), logger.Count("subscribers", len(subs)))
		return errors.Join(errs...)
	})
}
