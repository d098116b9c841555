package event_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/eventhttp/core/event"
	"github.com/dmitrymomot/eventhttp/core/logger"
)

type OrderPaid struct {
	OrderID string `json:"orderId"`
	Amount  int    `json:"amount"`
}

type OrderShipped struct {
	OrderID string
}

func TestBus_Dispatch(t *testing.T) {
	t.Parallel()

	t.Run("delivers to all handlers in order", func(t *testing.T) {
		t.Parallel()

		var calls []string
		bus := event.NewBus()
		bus.Subscribe(
			event.NewHandlerFunc(func(ctx context.Context, e OrderPaid) error {
				calls = append(calls, "first:"+e.OrderID)
				return nil
			}),
			event.NewHandlerFunc(func(ctx context.Context, e OrderPaid) error {
				calls = append(calls, "second:"+e.OrderID)
				return nil
			}),
		)

		require.NoError(t, bus.Dispatch(context.Background(), OrderPaid{OrderID: "42"}))
		assert.Equal(t, []string{"first:42", "second:42"}, calls)
	})

	t.Run("pointer payload reaches value handler", func(t *testing.T) {
		t.Parallel()

		var got OrderPaid
		bus := event.NewBus()
		bus.Subscribe(event.NewHandlerFunc(func(ctx context.Context, e OrderPaid) error {
			got = e
			return nil
		}))

		require.NoError(t, bus.Dispatch(context.Background(), &OrderPaid{OrderID: "7", Amount: 3}))
		assert.Equal(t, OrderPaid{OrderID: "7", Amount: 3}, got)
	})

	t.Run("other events are not delivered", func(t *testing.T) {
		t.Parallel()

		var called atomic.Bool
		bus := event.NewBus()
		bus.Subscribe(event.NewHandlerFunc(func(ctx context.Context, e OrderShipped) error {
			called.Store(true)
			return nil
		}))

		require.NoError(t, bus.Dispatch(context.Background(), OrderPaid{OrderID: "1"}))
		assert.False(t, called.Load())
	})

	t.Run("failures are joined and do not stop other handlers", func(t *testing.T) {
		t.Parallel()

		errBoom := errors.New("boom")
		var ran atomic.Int32
		bus := event.NewBus()
		bus.Subscribe(
			event.NewHandlerFunc(func(ctx context.Context, e OrderPaid) error {
				ran.Add(1)
				return errBoom
			}),
			event.NewHandlerFunc(func(ctx context.Context, e OrderPaid) error {
				ran.Add(1)
				panic("kaboom")
			}),
			event.NewHandlerFunc(func(ctx context.Context, e OrderPaid) error {
				ran.Add(1)
				return nil
			}),
		)

		err := bus.Dispatch(context.Background(), OrderPaid{OrderID: "1"})
		require.Error(t, err)
		assert.ErrorIs(t, err, errBoom)
		assert.ErrorIs(t, err, event.ErrHandlerPanicked)
		assert.Equal(t, int32(3), ran.Load())
	})

	t.Run("nil payload", func(t *testing.T) {
		t.Parallel()

		bus := event.NewBus()
		assert.ErrorIs(t, bus.Dispatch(context.Background(), nil), event.ErrNilPayload)
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		bus := event.NewBus()
		bus.Subscribe(event.NewHandlerFunc(func(ctx context.Context, e OrderPaid) error { return nil }))
		assert.ErrorIs(t, bus.Dispatch(ctx, OrderPaid{}), context.Canceled)
	})
}

func TestBus_Strict(t *testing.T) {
	t.Parallel()

	assert.NoError(t, event.NewBus().Dispatch(context.Background(), OrderPaid{}))

	err := event.NewBus(event.WithStrict()).Dispatch(context.Background(), OrderPaid{})
	assert.ErrorIs(t, err, event.ErrNoHandlers)
}

func TestBus_DispatchNamed(t *testing.T) {
	t.Parallel()

	var got OrderPaid
	bus := event.NewBus()
	bus.Subscribe(event.NewHandler("order.paid", func(ctx context.Context, e OrderPaid) error {
		got = e
		assert.Equal(t, "order.paid", event.EventName(ctx))
		assert.NotEmpty(t, event.EventID(ctx))
		assert.False(t, event.StartProcessingTime(ctx).IsZero())
		return nil
	}))

	assert.True(t, bus.HasHandlers("order.paid"))
	assert.False(t, bus.HasHandlers("OrderPaid"))

	require.NoError(t, bus.DispatchNamed(context.Background(), "order.paid", []byte(`{"orderId":"9","amount":5}`)))
	assert.Equal(t, OrderPaid{OrderID: "9", Amount: 5}, got)
}

func TestBus_Middleware(t *testing.T) {
	t.Parallel()

	var order []string
	mw := func(tag string) event.Middleware {
		return func(next event.Handler) event.Handler {
			return event.NewHandler(next.EventName(), func(ctx context.Context, e OrderPaid) error {
				order = append(order, tag)
				return next.Handle(ctx, e)
			})
		}
	}

	bus := event.NewBus(
		event.WithMiddleware(mw("outer"), mw("inner")),
		event.WithMiddleware(event.LoggingMiddleware(logger.Discard())),
	)
	bus.Subscribe(event.NewHandlerFunc(func(ctx context.Context, e OrderPaid) error {
		order = append(order, "handler")
		return nil
	}))

	require.NoError(t, bus.Dispatch(context.Background(), OrderPaid{}))
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestNewEvent(t *testing.T) {
	t.Parallel()

	evt := event.NewEvent(&OrderPaid{OrderID: "1"})
	assert.Equal(t, "OrderPaid", evt.Name)
	assert.NotEmpty(t, evt.ID)
	assert.False(t, evt.CreatedAt.IsZero())
	assert.Equal(t, "OrderPaid", event.Name(OrderPaid{}))
}

func TestHandler_UnexpectedPayload(t *testing.T) {
	t.Parallel()

	h := event.NewHandlerFunc(func(ctx context.Context, e OrderPaid) error { return nil })
	assert.Equal(t, "OrderPaid", h.EventName())

	err := h.Handle(context.Background(), OrderShipped{})
	assert.ErrorIs(t, err, event.ErrUnexpectedPayload)

	err = h.Handle(context.Background(), map[string]any{"orderId": "3"})
	assert.NoError(t, err)
}

func TestDispatch_KeepsPresetMetadata(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var got event.Metadata
	bus := event.NewBus()
	bus.Subscribe(event.NewHandlerFunc(func(ctx context.Context, e OrderPaid) error {
		got, _ = event.MetadataFrom(ctx)
		return nil
	}))

	ctx := event.WithMetadata(context.Background(), event.Metadata{ID: "evt-1", CreatedAt: created})
	require.NoError(t, bus.Dispatch(ctx, OrderPaid{}))

	assert.Equal(t, "evt-1", got.ID)
	assert.Equal(t, "OrderPaid", got.Name)
	assert.Equal(t, created, got.CreatedAt)
	assert.False(t, got.StartedAt.IsZero())

	_, ok := event.MetadataFrom(context.Background())
	assert.False(t, ok)
	assert.Empty(t, event.EventID(context.Background()))
	assert.True(t, event.EventTime(context.Background()).IsZero())
}
