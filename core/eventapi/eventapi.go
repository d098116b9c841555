// Package eventapi exposes the subscription registry and the consume
// endpoint of integration events over HTTP.
//
// All endpoints answer with an adapter.OperationResponse JSON body:
//
//	POST {prefix}/subscribe?event=&subscriber=    body: "http://callback/url"
//	POST {prefix}/unsubscribe?event=&subscriber=
//	GET  {prefix}/events
//	GET  {prefix}/subscribers?event=
//	POST {prefix}/consume?event=&uuid=            body: event payload JSON
//
// Logical outcomes (duplicate subscription, failed delivery, missing
// parameters) use status 200 with success=false. Registry errors use 500.
package eventapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/eventhttp/core/adapter"
	"github.com/dmitrymomot/eventhttp/core/logger"
	"github.com/dmitrymomot/eventhttp/core/subscription"
)

// Endpoint paths relative to the prefix.
const (
	SubscribePath   = "/subscribe"
	UnsubscribePath = "/unsubscribe"
	EventsPath      = "/events"
	SubscribersPath = "/subscribers"
	ConsumePath     = "/consume"
)

const (
	msgOK             = "ok"
	msgFail           = "fail"
	msgMissingParams  = "missing required parameters"
	msgInvalidBody    = "invalid request body"
	defaultMaxBodyLen = 1 << 20
)

// Consumer receives inbound deliveries. *adapter.Adapter implements it.
type Consumer interface {
	Consume(ctx context.Context, event string, payload []byte, headers map[string]any) bool
}

// API serves the integration-event endpoints.
type API struct {
	registry subscription.Registry
	consumer Consumer
	prefix   string
	maxBody  int64
	logger   *slog.Logger

	slowThreshold time.Duration
}

// Option configures an API.
type Option func(*API)

// WithPrefix sets the path prefix. Default adapter.DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(a *API) {
		a.prefix = "/" + strings.Trim(prefix, "/")
		if a.prefix == "/" {
			a.prefix = ""
		}
	}
}

// WithMaxBodySize limits request bodies.
func WithMaxBodySize(n int64) Option {
	return func(a *API) {
		if n > 0 {
			a.maxBody = n
		}
	}
}

// WithLogger sets the API logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *API) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithSlowRequestThreshold overrides DefaultSlowRequestThreshold.
func WithSlowRequestThreshold(d time.Duration) Option {
	return func(a *API) {
		if d > 0 {
			a.slowThreshold = d
		}
	}
}

// New creates an API over registry and consumer.
func New(registry subscription.Registry, consumer Consumer, opts ...Option) *API {
	a := &API{
		registry: registry,
		consumer: consumer,
		prefix:   adapter.DefaultPrefix,
		maxBody:  defaultMaxBodyLen,
		logger:   logger.Discard(),

		slowThreshold: DefaultSlowRequestThreshold,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Routes mounts the endpoints on r under the prefix.
func (a *API) Routes(r chi.Router) {
	r.Route(a.prefix, func(r chi.Router) {
		r.Use(middleware.RequestID)
		r.Use(RequestLogger(a.logger, a.slowThreshold))
		r.Use(middleware.Recoverer)

		r.Post(SubscribePath, a.subscribe)
		r.Post(UnsubscribePath, a.unsubscribe)
		r.Get(EventsPath, a.events)
		r.Get(SubscribersPath, a.subscribers)
		r.Post(ConsumePath, a.consume)
	})
}

// Handler returns a standalone router serving the endpoints.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	a.Routes(r)
	return r
}

func (a *API) subscribe(w http.ResponseWriter, r *http.Request) {
	event := strings.TrimSpace(r.URL.Query().Get(adapter.ParamEvent))
	subscriber := strings.TrimSpace(r.URL.Query().Get(adapter.ParamSubscriber))

	body, err := a.readBody(w, r)
	if err != nil {
		writeJSON(w, http.StatusOK, adapter.OperationResponse{Message: msgInvalidBody})
		return
	}
	var callbackURL string
	if err := json.Unmarshal(body, &callbackURL); err != nil {
		writeJSON(w, http.StatusOK, adapter.OperationResponse{Message: msgInvalidBody})
		return
	}
	callbackURL = strings.TrimSpace(callbackURL)

	if event == "" || subscriber == "" || callbackURL == "" {
		writeJSON(w, http.StatusOK, adapter.OperationResponse{Message: msgMissingParams})
		return
	}

	ok, err := a.registry.Subscribe(r.Context(), event, subscriber, callbackURL)
	if err != nil {
		a.fail(w, r, "subscribe failed", err)
		return
	}
	writeJSON(w, http.StatusOK, result(ok))
}

func (a *API) unsubscribe(w http.ResponseWriter, r *http.Request) {
	event := strings.TrimSpace(r.URL.Query().Get(adapter.ParamEvent))
	subscriber := strings.TrimSpace(r.URL.Query().Get(adapter.ParamSubscriber))
	if event == "" || subscriber == "" {
		writeJSON(w, http.StatusOK, adapter.OperationResponse{Message: msgMissingParams})
		return
	}

	ok, err := a.registry.Unsubscribe(r.Context(), event, subscriber)
	if err != nil {
		a.fail(w, r, "unsubscribe failed", err)
		return
	}
	writeJSON(w, http.StatusOK, result(ok))
}

func (a *API) events(w http.ResponseWriter, r *http.Request) {
	events, err := a.registry.Events(r.Context())
	if err != nil {
		a.fail(w, r, "list events failed", err)
		return
	}
	writeJSON(w, http.StatusOK, adapter.OperationResponse{Success: true, Message: msgOK, Data: events})
}

func (a *API) subscribers(w http.ResponseWriter, r *http.Request) {
	event := strings.TrimSpace(r.URL.Query().Get(adapter.ParamEvent))
	if event == "" {
		writeJSON(w, http.StatusOK, adapter.OperationResponse{Message: msgMissingParams})
		return
	}

	subs, err := a.registry.Subscribers(r.Context(), event)
	if err != nil {
		a.fail(w, r, "list subscribers failed", err)
		return
	}
	writeJSON(w, http.StatusOK, adapter.OperationResponse{Success: true, Message: msgOK, Data: subs})
}

func (a *API) consume(w http.ResponseWriter, r *http.Request) {
	event := strings.TrimSpace(r.URL.Query().Get(adapter.ParamEvent))
	id := r.URL.Query().Get(adapter.ParamUUID)

	body, err := a.readBody(w, r)
	if err != nil {
		writeJSON(w, http.StatusOK, adapter.OperationResponse{Message: msgInvalidBody})
		return
	}

	a.logger.InfoContext(r.Context(), "integration event received", logger.Event(event), logger.EventID(id))

	ok := a.consumer.Consume(r.Context(), event, body, messageHeaders(r.Header, id))
	writeJSON(w, http.StatusOK, result(ok))
}

func (a *API) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, a.maxBody))
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	a.logger.ErrorContext(r.Context(), msg,
		logger.Key("request_id", middleware.GetReqID(r.Context())),
		logger.Error(err))
	writeJSON(w, http.StatusInternalServerError, adapter.OperationResponse{Message: err.Error()})
}

// messageHeaders flattens request headers: single values become strings,
// repeated ones []string. The event id is added under "uuid".
func messageHeaders(h http.Header, id string) map[string]any {
	out := make(map[string]any, len(h)+1)
	for name, values := range h {
		switch len(values) {
		case 0:
		case 1:
			out[name] = values[0]
		default:
			out[name] = append([]string(nil), values...)
		}
	}
	out[adapter.ParamUUID] = id
	return out
}

func result(ok bool) adapter.OperationResponse {
	if ok {
		return adapter.OperationResponse{Success: true, Message: msgOK}
	}
	return adapter.OperationResponse{Message: msgFail}
}

func writeJSON(w http.ResponseWriter, status int, v adapter.OperationResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
