package service_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/eventhttp/app/service"
	"github.com/dmitrymomot/eventhttp/core/adapter"
	"github.com/dmitrymomot/eventhttp/core/event"
	"github.com/dmitrymomot/eventhttp/core/logger"
	"github.com/dmitrymomot/eventhttp/core/server"
	"github.com/dmitrymomot/eventhttp/core/subscription"
)

type OrderPaid struct {
	OrderID string `json:"orderId"`
}

func testConfig(name, baseURL string) service.Config {
	return service.Config{
		Adapter: adapter.Config{
			AppName:     name,
			BaseURL:     baseURL,
			ConsumePath: adapter.DefaultPrefix + "/consume",
		},
		Server:            server.Config{Addr: "127.0.0.1:0"},
		Registry:          service.RegistryMemory,
		CallbackWorkers:   2,
		CallbackBuffer:    16,
		RetryAttempts:     1,
		RetryInitialDelay: 10 * time.Millisecond,
		RetryMaxDelay:     50 * time.Millisecond,
		UnregisterTimeout: time.Second,
	}
}

// startNode serves app on an httptest server whose address is known before
// the app is built, so it can advertise its own callback URL.
func startNode(t *testing.T, name string, opts ...service.AppOption) (*service.App, *httptest.Server) {
	t.Helper()

	srv := httptest.NewUnstartedServer(nil)
	app, err := service.NewApp(context.Background(),
		testConfig(name, "http://"+srv.Listener.Addr().String()),
		append([]service.AppOption{service.WithLogger(logger.Discard())}, opts...)...)
	require.NoError(t, err)

	srv.Config.Handler = app.Handler()
	srv.Start()
	t.Cleanup(func() {
		srv.Close()
		app.Close()
	})
	return app, srv
}

func TestApp_RemoteSubscriptionAndPublish(t *testing.T) {
	t.Parallel()

	producer, producerSrv := startNode(t, "orders")

	received := make(chan OrderPaid, 1)
	consumer, consumerSrv := startNode(t, "billing",
		service.WithBindings(adapter.Bind[OrderPaid]("OrderPaid@"+producerSrv.URL+adapter.DefaultPrefix+"/subscribe", "")),
		service.WithHandlers(event.NewHandlerFunc(func(ctx context.Context, e OrderPaid) error {
			received <- e
			return nil
		})),
	)

	ctx := context.Background()
	report := consumer.Adapter().Register(ctx)
	require.NoError(t, report.Err())
	assert.Equal(t, []string{"OrderPaid"}, report.Remote)

	subs, err := producer.Adapter().Registry().Subscribers(ctx, "OrderPaid")
	require.NoError(t, err)
	assert.Equal(t, []subscription.Subscription{{
		Event:       "OrderPaid",
		Subscriber:  "billing",
		CallbackURL: consumerSrv.URL + adapter.DefaultPrefix + "/consume",
	}}, subs)

	err = producer.Publisher().Publish(ctx, "OrderPaid", "evt-1", OrderPaid{OrderID: "42"}).AwaitWithTimeout(2 * time.Second)
	require.NoError(t, err)

	select {
	case e := <-received:
		assert.Equal(t, "42", e.OrderID)
	case <-time.After(3 * time.Second):
		t.Fatal("event was not delivered to the consumer")
	}

	require.NoError(t, consumer.Adapter().Unregister(ctx))
	subs, err = producer.Adapter().Registry().Subscribers(ctx, "OrderPaid")
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestApp_HealthAndMetrics(t *testing.T) {
	t.Parallel()

	received := make(chan struct{}, 1)
	app, srv := startNode(t, "billing",
		service.WithBindings(adapter.Bind[OrderPaid]("OrderPaid", "")),
		service.WithHandlers(event.NewHandlerFunc(func(ctx context.Context, e OrderPaid) error {
			received <- struct{}{}
			return nil
		})),
	)
	require.NoError(t, app.Adapter().Register(context.Background()).Err())

	get := func(path string) (int, string) {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(body)
	}

	code, body := get(service.LivenessPath)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ALIVE", body)

	code, _ = get(service.ReadinessPath)
	assert.Equal(t, http.StatusOK, code)

	ok := app.Adapter().Consume(context.Background(), "OrderPaid", []byte(`{"orderId":"7"}`), nil)
	require.True(t, ok)
	<-received

	code, body = get(service.MetricsPath)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `eventhttp_deliveries_total{event="OrderPaid",result="success"} 1`)
	assert.Contains(t, body, `eventhttp_registrations_total{mode="local",result="success"} 1`)
}

func TestApp_ReadinessReportsFailingCheck(t *testing.T) {
	t.Parallel()

	_, srv := startNode(t, "billing", service.WithHealthchecks(func(context.Context) error {
		return assert.AnError
	}))

	resp, err := http.Get(srv.URL + service.ReadinessPath)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestApp_Run(t *testing.T) {
	t.Parallel()

	app, err := service.NewApp(context.Background(), testConfig("billing", "http://localhost"),
		service.WithLogger(logger.Discard()),
		service.WithRegistry(subscription.NewMemoryRegistry()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestNewApp_UnknownRegistry(t *testing.T) {
	t.Parallel()

	cfg := testConfig("billing", "http://localhost")
	cfg.Registry = "cassandra"

	_, err := service.NewApp(context.Background(), cfg, service.WithLogger(logger.Discard()))
	require.ErrorIs(t, err, service.ErrUnknownRegistry)
}

func TestNewApp_NilOptions(t *testing.T) {
	t.Parallel()

	cfg := testConfig("billing", "http://localhost")
	_, err := service.NewApp(context.Background(), cfg, service.WithLogger(nil))
	require.Error(t, err)
	_, err = service.NewApp(context.Background(), cfg, service.WithRegistry(nil))
	require.Error(t, err)
}
