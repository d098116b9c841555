package adapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrymomot/eventhttp/core/logger"
)

// Consume delivers one inbound integration event and reports success.
// It never panics and never returns an error; see Deliver for the cause of a false result.
func (a *Adapter) Consume(ctx context.Context, event string, payload []byte, headers map[string]any) bool {
	return a.Deliver(ctx, event, payload, headers) == nil
}

// Deliver decodes payload into the type bound to event, runs the interceptor
// chain and dispatches to the event bus. Failures are returned as *DeliveryError.
func (a *Adapter) Deliver(ctx context.Context, event string, payload []byte, headers map[string]any) (err error) {
	start := time.Now()

	var derr *DeliveryError
	defer func() {
		if r := recover(); r != nil {
			derr = deliveryError(KindPanic, event, fmt.Errorf("%v", r))
		}
		a.metrics.observeDelivery(event, derr, time.Since(start))
		if derr != nil {
			a.logger.ErrorContext(ctx, "integration event delivery failed",
				logger.Event(event),
				logger.Result(string(derr.Kind)),
				logger.Payload(string(payload)),
				logger.Error(derr.Err))
			err = derr
			return
		}
		err = nil
		a.logger.DebugContext(ctx, "integration event delivered",
			logger.Event(event),
			logger.Elapsed(start))
	}()

	derr = a.deliver(ctx, event, payload, headers)
	return nil
}

func (a *Adapter) deliver(ctx context.Context, event string, raw []byte, headers map[string]any) *DeliveryError {
	d, ok := a.lookup(event)
	if !ok {
		return deliveryError(KindUnresolvedType, event, fmt.Errorf("%w: %q", ErrUnresolvedType, event))
	}

	payload, err := d.decode(raw)
	if err != nil {
		return deliveryError(KindDecodeError, event, errors.Join(ErrDecodePayload, err))
	}

	if len(a.interceptors) == 0 {
		if err := a.bus.Dispatch(ctx, payload); err != nil {
			return deliveryError(KindDispatchError, event, err)
		}
		return nil
	}

	if headers == nil {
		headers = make(map[string]any)
	}
	msg := &Message{Event: event, Payload: payload, Headers: headers}

	for _, i := range a.interceptors {
		if err := i.PreSubscribe(ctx, msg); err != nil {
			return deliveryError(KindInterceptorError, event, fmt.Errorf("pre-subscribe: %w", err))
		}
	}

	if err := a.bus.Dispatch(ctx, msg.Payload); err != nil {
		return deliveryError(KindDispatchError, event, err)
	}

	for _, i := range a.interceptors {
		if err := i.PostSubscribe(ctx, msg); err != nil {
			return deliveryError(KindInterceptorError, event, fmt.Errorf("post-subscribe: %w", err))
		}
	}
	return nil
}
