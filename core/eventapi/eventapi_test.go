package eventapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/eventhttp/core/adapter"
	"github.com/dmitrymomot/eventhttp/core/eventapi"
	"github.com/dmitrymomot/eventhttp/core/subscription"
)

type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type OrderPaid struct {
	OrderID string `json:"orderId"`
}

type captureBus struct {
	payloads []any
}

func (b *captureBus) Dispatch(ctx context.Context, payload any) error {
	b.payloads = append(b.payloads, payload)
	return nil
}

func do(t *testing.T, h http.Handler, method, target, body string) (int, response) {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Trace", "t-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec.Code, resp
}

func TestAPI_SubscriptionLifecycle(t *testing.T) {
	t.Parallel()

	reg := subscription.NewMemoryRegistry()
	h := eventapi.New(reg, nil).Handler()
	const base = "/integration-event/http"

	code, resp := do(t, h, http.MethodPost, base+"/subscribe?event=OrderPaid&subscriber=billing-svc", `"http://billing/cb"`)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)
	assert.Equal(t, "ok", resp.Message)

	_, resp = do(t, h, http.MethodPost, base+"/subscribe?event=OrderPaid&subscriber=billing-svc", `"http://other/cb"`)
	assert.False(t, resp.Success)
	assert.Equal(t, "fail", resp.Message)

	_, resp = do(t, h, http.MethodGet, base+"/events", "")
	assert.True(t, resp.Success)
	assert.JSONEq(t, `["OrderPaid"]`, string(resp.Data))

	_, resp = do(t, h, http.MethodGet, base+"/subscribers?event=OrderPaid", "")
	assert.True(t, resp.Success)
	assert.JSONEq(t, `[{"event":"OrderPaid","subscriber":"billing-svc","callbackUrl":"http://billing/cb"}]`, string(resp.Data))

	_, resp = do(t, h, http.MethodGet, base+"/subscribers?event=Unknown", "")
	assert.True(t, resp.Success)
	assert.JSONEq(t, `[]`, string(resp.Data))

	_, resp = do(t, h, http.MethodPost, base+"/unsubscribe?event=OrderPaid&subscriber=billing-svc", "")
	assert.True(t, resp.Success)

	_, resp = do(t, h, http.MethodPost, base+"/unsubscribe?event=OrderPaid&subscriber=billing-svc", "")
	assert.False(t, resp.Success)

	_, resp = do(t, h, http.MethodGet, base+"/events", "")
	assert.JSONEq(t, `[]`, string(resp.Data))
}

func TestAPI_MissingParameters(t *testing.T) {
	t.Parallel()

	h := eventapi.New(subscription.NewMemoryRegistry(), nil, eventapi.WithPrefix("/hooks/")).Handler()

	tests := []struct {
		name, method, target, body, message string
	}{
		{"subscribe without subscriber", http.MethodPost, "/hooks/subscribe?event=OrderPaid", `"http://cb"`, "missing required parameters"},
		{"subscribe with blank callback", http.MethodPost, "/hooks/subscribe?event=OrderPaid&subscriber=s", `"  "`, "missing required parameters"},
		{"subscribe with non-string body", http.MethodPost, "/hooks/subscribe?event=OrderPaid&subscriber=s", `{"url":1}`, "invalid request body"},
		{"unsubscribe without event", http.MethodPost, "/hooks/unsubscribe?subscriber=s", ``, "missing required parameters"},
		{"subscribers without event", http.MethodGet, "/hooks/subscribers", ``, "missing required parameters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := do(t, h, tt.method, tt.target, tt.body)
			assert.Equal(t, http.StatusOK, code)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.message, resp.Message)
		})
	}
}

func TestAPI_Consume(t *testing.T) {
	t.Parallel()

	var seen map[string]any
	bus := &captureBus{}
	a := adapter.New(adapter.Config{AppName: "billing-svc", BaseURL: "http://billing"}, subscription.NewMemoryRegistry(), bus,
		adapter.WithBindings(adapter.Bind[OrderPaid]("OrderPaid", "")),
		adapter.WithInterceptors(adapter.InterceptorFuncs{
			Pre: func(ctx context.Context, msg *adapter.Message) error {
				seen = msg.Headers
				return nil
			},
		}),
	)
	require.NoError(t, a.Register(context.Background()).Err())

	h := eventapi.New(a.Registry(), a).Handler()

	_, resp := do(t, h, http.MethodPost, "/integration-event/http/consume?event=OrderPaid&uuid=evt-1", `{"orderId":"42"}`)
	assert.True(t, resp.Success)
	assert.Equal(t, []any{OrderPaid{OrderID: "42"}}, bus.payloads)
	assert.Equal(t, "evt-1", seen["uuid"])
	assert.Equal(t, "t-1", seen["X-Trace"])

	_, resp = do(t, h, http.MethodPost, "/integration-event/http/consume?event=Unknown&uuid=evt-2", `{}`)
	assert.False(t, resp.Success)
	assert.Equal(t, "fail", resp.Message)

	_, resp = do(t, h, http.MethodPost, "/integration-event/http/consume?event=OrderPaid&uuid=evt-3", `{broken`)
	assert.False(t, resp.Success)
}

type failingRegistry struct {
	subscription.Registry
}

func (failingRegistry) Events(context.Context) ([]string, error) {
	return nil, errors.New("store unavailable")
}

func TestAPI_RegistryError(t *testing.T) {
	t.Parallel()

	h := eventapi.New(failingRegistry{subscription.NewMemoryRegistry()}, nil).Handler()
	code, resp := do(t, h, http.MethodGet, "/integration-event/http/events", "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.False(t, resp.Success)
	assert.Equal(t, "store unavailable", resp.Message)
}

func TestAPI_BodyLimit(t *testing.T) {
	t.Parallel()

	h := eventapi.New(subscription.NewMemoryRegistry(), nil, eventapi.WithMaxBodySize(8)).Handler()
	_, resp := do(t, h, http.MethodPost, "/integration-event/http/subscribe?event=E&subscriber=s", `"http://a-very-long-callback-url"`)
	assert.False(t, resp.Success)
	assert.Equal(t, "invalid request body", resp.Message)
}
