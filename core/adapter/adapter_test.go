package adapter_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/eventhttp/core/adapter"
	"github.com/dmitrymomot/eventhttp/core/event"
	"github.com/dmitrymomot/eventhttp/core/subscription"
	"github.com/dmitrymomot/eventhttp/pkg/placeholder"
)

type OrderPaid struct {
	OrderID string `json:"orderId"`
	Amount  int    `json:"amount"`
}

type StockLow struct {
	SKU string `json:"sku"`
}

type recordingBus struct {
	mu       sync.Mutex
	payloads []any
	err      error
}

func (b *recordingBus) Dispatch(ctx context.Context, payload any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.payloads = append(b.payloads, payload)
	return b.err
}

type recordingCommands struct {
	mu   sync.Mutex
	cmds []any
	fail func(cmd any) error
}

func (c *recordingCommands) Dispatch(ctx context.Context, cmd any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cmds = append(c.cmds, cmd)
	if c.fail != nil {
		return c.fail(cmd)
	}
	return nil
}

func testConfig() adapter.Config {
	return adapter.Config{
		AppName:     "billing-svc",
		BaseURL:     "http://billing:8080/",
		ConsumePath: "/integration-event/http/consume",
	}
}

func registered(t *testing.T, bus adapter.EventBus, opts ...adapter.Option) *adapter.Adapter {
	t.Helper()
	opts = append([]adapter.Option{adapter.WithBindings(adapter.Bind[OrderPaid]("OrderPaid", ""))}, opts...)
	a := adapter.New(testConfig(), subscription.NewMemoryRegistry(), bus, opts...)
	require.NoError(t, a.Register(context.Background()).Err())
	return a
}

func TestConfig_CallbackURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "http://billing:8080/integration-event/http/consume", testConfig().CallbackURL())
	assert.Equal(t, "http://x/consume", adapter.Config{BaseURL: "http://x", ConsumePath: "consume"}.CallbackURL())
}

func TestConsume_NoInterceptors(t *testing.T) {
	t.Parallel()

	bus := &recordingBus{}
	a := registered(t, bus)

	ok := a.Consume(context.Background(), "OrderPaid", []byte(`{"orderId":"42","amount":7,"extra":true}`), nil)
	require.True(t, ok)
	assert.Equal(t, []any{OrderPaid{OrderID: "42", Amount: 7}}, bus.payloads)
}

func TestConsume_InterceptorOrder(t *testing.T) {
	t.Parallel()

	var (
		calls  []string
		seenBy []string
	)
	second := adapter.InterceptorFuncs{
		Pre: func(ctx context.Context, msg *adapter.Message) error {
			calls = append(calls, "pre-2")
			seenBy = append(seenBy, msg.Payload.(OrderPaid).OrderID)
			return nil
		},
		Post: func(ctx context.Context, msg *adapter.Message) error {
			calls = append(calls, "post-2")
			return nil
		},
	}
	first := adapter.InterceptorFuncs{
		Pre: func(ctx context.Context, msg *adapter.Message) error {
			calls = append(calls, "pre-1")
			p := msg.Payload.(OrderPaid)
			p.OrderID = "rewritten"
			msg.Payload = p
			msg.Headers["seen"] = "yes"
			return nil
		},
		Post: func(ctx context.Context, msg *adapter.Message) error {
			calls = append(calls, "post-1")
			assert.Equal(t, "yes", msg.Header("seen"))
			assert.Equal(t, "abc", msg.Header("uuid"))
			return nil
		},
	}
	last := adapter.InterceptorFuncs{
		Pre: func(ctx context.Context, msg *adapter.Message) error {
			calls = append(calls, "pre-last")
			return nil
		},
	}

	bus := &recordingBus{}
	a := registered(t, bus,
		adapter.WithInterceptors(last),
		adapter.WithInterceptor(second, 2),
		adapter.WithInterceptor(first, 1),
	)

	ok := a.Consume(context.Background(), "OrderPaid", []byte(`{"orderId":"42"}`), map[string]any{"uuid": "abc"})
	require.True(t, ok)

	assert.Equal(t, []string{"pre-1", "pre-2", "pre-last", "post-1", "post-2"}, calls)
	assert.Equal(t, []string{"rewritten"}, seenBy)
	assert.Equal(t, []any{OrderPaid{OrderID: "rewritten"}}, bus.payloads)
}

func TestDeliver_Failures(t *testing.T) {
	t.Parallel()

	errHook := errors.New("hook failed")
	tests := []struct {
		name  string
		event string
		body  string
		opts  []adapter.Option
		bus   *recordingBus
		kind  adapter.Kind
	}{
		{
			name:  "unregistered event",
			event: "Unknown",
			body:  `{}`,
			kind:  adapter.KindUnresolvedType,
		},
		{
			name:  "malformed payload",
			event: "OrderPaid",
			body:  `{"orderId":`,
			kind:  adapter.KindDecodeError,
		},
		{
			name:  "pre hook error",
			event: "OrderPaid",
			body:  `{}`,
			opts: []adapter.Option{adapter.WithInterceptors(adapter.InterceptorFuncs{
				Pre: func(ctx context.Context, msg *adapter.Message) error { return errHook },
			})},
			kind: adapter.KindInterceptorError,
		},
		{
			name:  "post hook error",
			event: "OrderPaid",
			body:  `{}`,
			opts: []adapter.Option{adapter.WithInterceptors(adapter.InterceptorFuncs{
				Post: func(ctx context.Context, msg *adapter.Message) error { return errHook },
			})},
			kind: adapter.KindInterceptorError,
		},
		{
			name:  "interceptor panic",
			event: "OrderPaid",
			body:  `{}`,
			opts: []adapter.Option{adapter.WithInterceptors(adapter.InterceptorFuncs{
				Pre: func(ctx context.Context, msg *adapter.Message) error { panic("boom") },
			})},
			kind: adapter.KindPanic,
		},
		{
			name:  "bus error",
			event: "OrderPaid",
			body:  `{}`,
			bus:   &recordingBus{err: errors.New("handler failed")},
			kind:  adapter.KindDispatchError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			bus := tt.bus
			if bus == nil {
				bus = &recordingBus{}
			}
			a := registered(t, bus, tt.opts...)

			assert.False(t, a.Consume(context.Background(), tt.event, []byte(tt.body), nil))

			err := a.Deliver(context.Background(), tt.event, []byte(tt.body), nil)
			var derr *adapter.DeliveryError
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, tt.kind, derr.Kind)
			assert.Equal(t, tt.event, derr.Event)
		})
	}
}

func TestDeliver_UnresolvedSkipsBus(t *testing.T) {
	t.Parallel()

	bus := &recordingBus{}
	a := registered(t, bus)

	err := a.Deliver(context.Background(), "StockLow", []byte(`{"sku":"x"}`), nil)
	assert.ErrorIs(t, err, adapter.ErrUnresolvedType)
	assert.Empty(t, bus.payloads)
}

func TestConsume_WithEventBus(t *testing.T) {
	t.Parallel()

	var got OrderPaid
	bus := event.NewBus()
	bus.Subscribe(event.NewHandlerFunc(func(ctx context.Context, e OrderPaid) error {
		got = e
		return nil
	}))
	a := registered(t, bus)

	require.True(t, a.Consume(context.Background(), "OrderPaid", []byte(`{"orderId":"9","amount":3}`), nil))
	assert.Equal(t, OrderPaid{OrderID: "9", Amount: 3}, got)
}

func TestRegister(t *testing.T) {
	t.Parallel()

	reg := subscription.NewMemoryRegistry()
	cmds := &recordingCommands{
		fail: func(cmd any) error {
			if r, ok := cmd.(adapter.SubscribeRequest); ok && r.Event == "Broken" {
				return errors.New("producer down")
			}
			return nil
		},
	}
	resolver := placeholder.New(placeholder.WithValues(map[string]string{
		"STOCK_URL": "http://stock:8080",
		"TEAM":      "billing-team",
	}))

	a := adapter.New(testConfig(), reg, &recordingBus{},
		adapter.WithResolver(resolver),
		adapter.WithCommandDispatcher(cmds),
		adapter.WithBindings(
			adapter.Bind[OrderPaid]("OrderPaid", ""),
			adapter.Bind[OrderPaid]("OrderRefunded", "${TEAM}"),
			adapter.Bind[StockLow]("StockLow@${STOCK_URL}/integration-event/http/subscribe", ""),
			adapter.Bind[StockLow]("Broken@http://broken/subscribe", ""),
			adapter.Bind[StockLow]("", ""),
			adapter.Bind[StockLow]("Ignored", "[None]"),
			adapter.Bind[StockLow]("@http://nowhere", ""),
		),
	)

	report := a.Register(context.Background())

	assert.ElementsMatch(t, []string{"OrderPaid", "OrderRefunded"}, report.Local)
	assert.Equal(t, []string{"StockLow"}, report.Remote)
	assert.Len(t, report.Skipped, 2)
	require.Len(t, report.Failed, 2)
	assert.Error(t, report.Err())

	subs, err := reg.Subscribers(context.Background(), "OrderPaid")
	require.NoError(t, err)
	assert.Equal(t, []subscription.Subscription{{
		Event:       "OrderPaid",
		Subscriber:  "billing-svc",
		CallbackURL: "http://billing:8080/integration-event/http/consume",
	}}, subs)

	subs, err = reg.Subscribers(context.Background(), "OrderRefunded")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "billing-team", subs[0].Subscriber)

	// Remote subscriptions go to the producer, not the local registry.
	subs, err = reg.Subscribers(context.Background(), "StockLow")
	require.NoError(t, err)
	assert.Empty(t, subs)

	assert.Contains(t, cmds.cmds, adapter.SubscribeRequest{
		URL:         "http://stock:8080/integration-event/http/subscribe",
		Event:       "StockLow",
		Subscriber:  "billing-svc",
		CallbackURL: "http://billing:8080/integration-event/http/consume",
	})

	events := a.Events()
	sort.Strings(events)
	assert.Equal(t, []string{"Broken", "OrderPaid", "OrderRefunded", "StockLow"}, events)

	// A second run finds the local subscriptions already present.
	again := a.Register(context.Background())
	assert.ElementsMatch(t, []string{"OrderPaid", "OrderRefunded"}, again.Existing)
	assert.Empty(t, again.Local)

	require.True(t, a.Consume(context.Background(), "Broken", []byte(`{"sku":"1"}`), nil))
}

func TestRegister_RemoteWithoutDispatcher(t *testing.T) {
	t.Parallel()

	a := adapter.New(testConfig(), subscription.NewMemoryRegistry(), &recordingBus{},
		adapter.WithBindings(adapter.Bind[StockLow]("StockLow@http://stock/subscribe", "")))

	report := a.Register(context.Background())
	require.Len(t, report.Failed, 1)
	assert.ErrorIs(t, report.Failed[0].Err, adapter.ErrNoCommandBus)
}

func TestUnregister(t *testing.T) {
	t.Parallel()

	reg := subscription.NewMemoryRegistry()
	cmds := &recordingCommands{}
	a := adapter.New(testConfig(), reg, &recordingBus{},
		adapter.WithCommandDispatcher(cmds),
		adapter.WithBindings(
			adapter.Bind[OrderPaid]("OrderPaid", ""),
			adapter.Bind[StockLow]("StockLow@http://stock/subscribe", ""),
		),
	)
	require.NoError(t, a.Register(context.Background()).Err())
	require.NoError(t, a.Unregister(context.Background()))

	events, err := reg.Events(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Contains(t, cmds.cmds, adapter.UnsubscribeRequest{
		URL:        "http://stock/unsubscribe",
		Event:      "StockLow",
		Subscriber: "billing-svc",
	})
}

func TestUnregister_LeavesForeignSubscriptions(t *testing.T) {
	t.Parallel()

	reg := subscription.NewMemoryRegistry()
	bindings := adapter.WithBindings(adapter.Bind[OrderPaid]("OrderPaid", ""))

	first := adapter.New(testConfig(), reg, &recordingBus{}, bindings)
	second := adapter.New(testConfig(), reg, &recordingBus{}, bindings)

	require.Equal(t, []string{"OrderPaid"}, first.Register(context.Background()).Local)
	require.Equal(t, []string{"OrderPaid"}, second.Register(context.Background()).Existing)

	// The replica that found the row in place must not remove it.
	require.NoError(t, second.Unregister(context.Background()))
	subs, err := reg.Subscribers(context.Background(), "OrderPaid")
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	require.NoError(t, first.Unregister(context.Background()))
	subs, err = reg.Subscribers(context.Background(), "OrderPaid")
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestUnregister_SkipsFailedRemote(t *testing.T) {
	t.Parallel()

	cmds := &recordingCommands{
		fail: func(cmd any) error {
			if r, ok := cmd.(adapter.SubscribeRequest); ok && r.Event == "Broken" {
				return errors.New("producer down")
			}
			return nil
		},
	}
	a := adapter.New(testConfig(), subscription.NewMemoryRegistry(), &recordingBus{},
		adapter.WithCommandDispatcher(cmds),
		adapter.WithBindings(
			adapter.Bind[StockLow]("StockLow@http://stock/subscribe", ""),
			adapter.Bind[StockLow]("Broken@http://broken/subscribe", ""),
		),
	)
	require.Len(t, a.Register(context.Background()).Failed, 1)
	require.NoError(t, a.Unregister(context.Background()))

	var unsubscribed []string
	for _, cmd := range cmds.cmds {
		if r, ok := cmd.(adapter.UnsubscribeRequest); ok {
			unsubscribed = append(unsubscribed, r.Event)
		}
	}
	assert.Equal(t, []string{"StockLow"}, unsubscribed)

	// Already withdrawn: nothing left to send.
	require.NoError(t, a.Unregister(context.Background()))
	assert.Len(t, cmds.cmds, 3)
}

type panickingRegistry struct {
	*subscription.MemoryRegistry
	event string
}

func (r panickingRegistry) Subscribe(ctx context.Context, event, subscriber, callbackURL string) (bool, error) {
	if event == r.event {
		panic("boom")
	}
	return r.MemoryRegistry.Subscribe(ctx, event, subscriber, callbackURL)
}

func TestRegister_RegistryPanicIsIsolated(t *testing.T) {
	t.Parallel()

	reg := panickingRegistry{MemoryRegistry: subscription.NewMemoryRegistry(), event: "Bad"}
	a := adapter.New(testConfig(), reg, &recordingBus{},
		adapter.WithBindings(
			adapter.Bind[StockLow]("Bad", ""),
			adapter.Bind[OrderPaid]("OrderPaid", ""),
		),
	)

	var report adapter.RegistrationReport
	require.NotPanics(t, func() { report = a.Register(context.Background()) })

	assert.Equal(t, []string{"OrderPaid"}, report.Local)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "Bad", report.Failed[0].Event)
	assert.ErrorIs(t, report.Failed[0].Err, adapter.ErrRegistryPanic)

	subs, err := reg.Subscribers(context.Background(), "OrderPaid")
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestConsume_BeforeRegister(t *testing.T) {
	t.Parallel()

	bus := &recordingBus{}
	a := adapter.New(testConfig(), subscription.NewMemoryRegistry(), bus,
		adapter.WithBindings(adapter.Bind[OrderPaid]("OrderPaid", "")))

	assert.Equal(t, []string{"OrderPaid"}, a.Events())
	require.True(t, a.Consume(context.Background(), "OrderPaid", []byte(`{"orderId":"1","amount":2}`), nil))
	assert.Equal(t, []any{OrderPaid{OrderID: "1", Amount: 2}}, bus.payloads)
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := adapter.NewMetrics(reg)
	a := registered(t, &recordingBus{}, adapter.WithMetrics(m))

	a.Consume(context.Background(), "OrderPaid", []byte(`{}`), nil)
	a.Consume(context.Background(), "OrderPaid", []byte(`nope`), nil)
	a.Consume(context.Background(), "Nope", []byte(`{}`), nil)

	count, err := testutil.GatherAndCount(reg, "eventhttp_deliveries_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
