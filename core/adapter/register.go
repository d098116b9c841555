package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrymomot/eventhttp/core/logger"
	"github.com/dmitrymomot/eventhttp/pkg/async"
)

// RegistrationFailure records one binding that could not be registered.
type RegistrationFailure struct {
	Target string
	Event  string
	Err    error
}

// RegistrationReport summarizes Register.
type RegistrationReport struct {
	Local    []string
	Remote   []string
	Existing []string
	Skipped  []string
	Failed   []RegistrationFailure
}

// Err joins all failures, or returns nil.
func (r RegistrationReport) Err() error {
	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		errs = append(errs, fmt.Errorf("%s: %w", f.Target, f.Err))
	}
	return errors.Join(errs...)
}

// Register processes every binding once: local ones are written to the
// registry, remote ones are sent to their producer as SubscribeRequest
// commands. A failing binding never stops the others. Only subscriptions
// created here are remembered for Unregister.
func (a *Adapter) Register(ctx context.Context) RegistrationReport {
	var (
		report  RegistrationReport
		remotes []descriptor
		futures []*async.ExecFuture
	)

	for _, c := range a.candidates {
		if c.skip {
			report.Skipped = append(report.Skipped, c.target)
			a.logger.DebugContext(ctx, "binding skipped", logger.Key("target", c.target))
			continue
		}
		if c.err != nil {
			report.Failed = append(report.Failed, RegistrationFailure{Target: c.target, Err: c.err})
			a.logger.ErrorContext(ctx, "invalid event binding", logger.Key("target", c.target), logger.Error(c.err))
			continue
		}

		d := c.desc
		if d.remote {
			remotes = append(remotes, d)
			futures = append(futures, async.Exec(ctx, d, a.subscribeRemote))
			continue
		}

		created, err := a.subscribeLocal(ctx, d)
		a.metrics.observeRegistration("local", err)
		switch {
		case err != nil:
			report.Failed = append(report.Failed, RegistrationFailure{Target: c.target, Event: d.event, Err: err})
			a.logger.ErrorContext(ctx, "local subscription failed", append(a.logAttrs(d), logger.Error(err))...)
		case created:
			a.own(d)
			report.Local = append(report.Local, d.event)
			a.logger.InfoContext(ctx, "local subscription registered", a.logAttrs(d)...)
		default:
			report.Existing = append(report.Existing, d.event)
			a.logger.DebugContext(ctx, "local subscription already exists", a.logAttrs(d)...)
		}
	}

	for i, f := range futures {
		d := remotes[i]
		err := f.Await()
		a.metrics.observeRegistration("remote", err)
		if err != nil {
			report.Failed = append(report.Failed, RegistrationFailure{Target: d.event + "@" + d.sourceURL, Event: d.event, Err: err})
			a.logger.ErrorContext(ctx, "remote subscription failed",
				append(a.logAttrs(d), logger.URL(d.sourceURL), logger.Error(err))...)
			continue
		}
		a.own(d)
		report.Remote = append(report.Remote, d.event)
		a.logger.InfoContext(ctx, "remote subscription registered", append(a.logAttrs(d), logger.URL(d.sourceURL))...)
	}

	return report
}

// subscribeLocal writes one subscription, turning a registry panic into an error.
func (a *Adapter) subscribeLocal(ctx context.Context, d descriptor) (created bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			created, err = false, fmt.Errorf("%w: %v", ErrRegistryPanic, r)
		}
	}()
	return a.registry.Subscribe(ctx, d.event, d.subscriber, d.callbackURL)
}

func (a *Adapter) own(d descriptor) {
	a.mu.Lock()
	a.owned[d.event] = d
	a.mu.Unlock()
}

func (a *Adapter) subscribeRemote(ctx context.Context, d descriptor) error {
	if a.commands == nil {
		return ErrNoCommandBus
	}
	return a.commands.Dispatch(ctx, SubscribeRequest{
		URL:         d.sourceURL,
		Event:       d.event,
		Subscriber:  d.subscriber,
		CallbackURL: d.callbackURL,
	})
}

// Unregister withdraws the subscriptions this adapter created: local ones
// from the registry, remote ones through UnsubscribeRequest commands.
// Subscriptions that already existed or failed to register are left alone.
// Withdrawn entries are forgotten, so calling Unregister twice is safe.
func (a *Adapter) Unregister(ctx context.Context) error {
	a.mu.RLock()
	owned := make([]descriptor, 0, len(a.owned))
	for _, d := range a.owned {
		owned = append(owned, d)
	}
	a.mu.RUnlock()

	var errs []error
	for _, d := range owned {
		if err := a.withdraw(ctx, d); err != nil {
			errs = append(errs, err)
			continue
		}
		a.mu.Lock()
		delete(a.owned, d.event)
		a.mu.Unlock()
	}
	return errors.Join(errs...)
}

func (a *Adapter) withdraw(ctx context.Context, d descriptor) error {
	if !d.remote {
		if _, err := a.registry.Unsubscribe(ctx, d.event, d.subscriber); err != nil {
			return fmt.Errorf("unsubscribe %s: %w", d.event, err)
		}
		return nil
	}
	if a.commands == nil {
		return ErrNoCommandBus
	}
	if err := a.commands.Dispatch(ctx, UnsubscribeRequest{
		URL:        unsubscribeURL(d.sourceURL),
		Event:      d.event,
		Subscriber: d.subscriber,
	}); err != nil {
		return fmt.Errorf("unsubscribe %s remotely: %w", d.event, err)
	}
	return nil
}
