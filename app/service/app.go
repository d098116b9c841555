package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/eventhttp/core/adapter"
	"github.com/dmitrymomot/eventhttp/core/command"
	"github.com/dmitrymomot/eventhttp/core/config"
	"github.com/dmitrymomot/eventhttp/core/event"
	"github.com/dmitrymomot/eventhttp/core/eventapi"
	"github.com/dmitrymomot/eventhttp/core/health"
	"github.com/dmitrymomot/eventhttp/core/logger"
	"github.com/dmitrymomot/eventhttp/core/server"
	"github.com/dmitrymomot/eventhttp/core/subscription"
	"github.com/dmitrymomot/eventhttp/pkg/webhook"
)

// Route paths served next to the event endpoints.
const (
	LivenessPath  = "/health/live"
	ReadinessPath = "/health/ready"
	MetricsPath   = "/metrics"
)

// App composes the registry backend, the buses, the adapter and the HTTP
// server of one eventhttp node.
type App struct {
	config  Config
	logger  *slog.Logger
	backend backend

	bus       *event.Bus
	commands  *command.Dispatcher
	callbacks *command.Dispatcher
	adapter   *adapter.Adapter
	publisher *adapter.Publisher
	api       *eventapi.API
	metrics   *prometheus.Registry
	server    *server.Server

	registry       subscription.Registry
	handlers       []event.Handler
	bindings       []adapter.Binding
	adapterOptions []adapter.Option
	checks         []func(context.Context) error
	closeOnce      sync.Once
}

type AppOption func(*App) error

// NewAppFromEnv loads Config from the environment and calls NewApp.
func NewAppFromEnv(ctx context.Context, opts ...AppOption) (*App, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	return NewApp(ctx, cfg, opts...)
}

// NewApp opens the configured registry backend and wires every component.
// Close releases the backend when Run is not used.
func NewApp(ctx context.Context, cfg Config, opts ...AppOption) (*App, error) {
	app := &App{
		config: cfg,
		logger: newLogger(cfg),
	}
	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	if app.registry != nil {
		app.backend = backend{registry: app.registry, close: func() {}}
	} else {
		b, err := openBackend(ctx, cfg.Registry, app.logger.With(logger.Component("registry")))
		if err != nil {
			return nil, err
		}
		app.backend = b
	}
	if app.backend.check != nil {
		app.checks = append(app.checks, app.backend.check)
	}

	app.metrics = prometheus.NewRegistry()
	app.metrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app.bus = event.NewBus(
		event.WithBusLogger(app.logger.With(logger.Component("event-bus"))),
		event.WithMiddleware(event.LoggingMiddleware(app.logger)),
	)
	app.bus.Subscribe(app.handlers...)

	sender := webhook.NewSender(
		webhook.WithConfig(cfg.Webhook),
		webhook.WithLogger(app.logger.With(logger.Component("webhook"))),
	)
	cmdLog := app.logger.With(logger.Component("commands"))

	app.commands = command.NewDispatcher(
		command.WithLogger(cmdLog),
		command.WithMiddleware(command.LoggingMiddleware(cmdLog)),
	)
	app.commands.Register(
		app.retry(adapter.NewSubscribeHandler(sender, cmdLog)),
		app.retry(adapter.NewUnsubscribeHandler(sender, cmdLog)),
	)

	app.callbacks = command.NewDispatcher(
		command.WithChannelTransport(cfg.CallbackBuffer, command.WithWorkers(cfg.CallbackWorkers)),
		command.WithLogger(cmdLog),
		command.WithErrorHandler(func(ctx context.Context, name string, err error) {
			cmdLog.ErrorContext(ctx, "callback trigger failed", logger.Command(name), logger.Error(err))
		}),
	)
	app.callbacks.Register(app.retry(adapter.NewCallbackTriggerHandler(sender, cmdLog)))

	adapterOpts := append([]adapter.Option{
		adapter.WithBindings(app.bindings...),
		adapter.WithCommandDispatcher(app.commands),
		adapter.WithMetrics(adapter.NewMetrics(app.metrics)),
		adapter.WithLogger(app.logger.With(logger.Component("adapter"))),
	}, app.adapterOptions...)
	app.adapter = adapter.New(cfg.Adapter, app.backend.registry, app.bus, adapterOpts...)

	app.publisher = adapter.NewPublisher(app.backend.registry, app.callbacks,
		adapter.WithPublisherLogger(app.logger.With(logger.Component("publisher"))))

	app.api = eventapi.New(app.backend.registry, app.adapter,
		eventapi.WithLogger(app.logger.With(logger.Component("eventapi"))))

	srv, err := server.NewFromConfig(cfg.Server, server.WithLogger(app.logger.With(logger.Component("server"))))
	if err != nil {
		app.Close()
		return nil, err
	}
	app.server = srv

	return app, nil
}

func (app *App) retry(h command.Handler) command.Handler {
	if app.config.RetryAttempts <= 0 {
		return h
	}
	return command.WithBackoff(h, app.config.RetryAttempts, app.config.RetryInitialDelay, app.config.RetryMaxDelay)
}

// Handler returns the HTTP handler with the event endpoints, health probes and metrics.
func (app *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get(LivenessPath, health.Liveness)
	r.Get(ReadinessPath, health.Readiness(app.logger, app.checks...))
	r.Handle(MetricsPath, promhttp.HandlerFor(app.metrics, promhttp.HandlerOpts{}))
	app.api.Routes(r)
	return r
}

// Run serves HTTP, registers the bindings and blocks until ctx is cancelled.
// On shutdown the subscriptions this instance created are withdrawn and every
// resource released.
func (app *App) Run(ctx context.Context) error {
	defer app.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(app.server.Run(ctx, app.Handler()))
	g.Go(func() error {
		report := app.adapter.Register(ctx)
		if err := report.Err(); err != nil {
			app.logger.WarnContext(ctx, "some event bindings failed to register", logger.Error(err))
		}
		app.logger.InfoContext(ctx, "event bindings registered",
			logger.Count("local", len(report.Local)),
			logger.Count("remote", len(report.Remote)),
			logger.Count("existing", len(report.Existing)),
			logger.Count("skipped", len(report.Skipped)),
			logger.Count("failed", len(report.Failed)))

		<-ctx.Done()

		unregCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.config.UnregisterTimeout)
		defer cancel()
		if err := app.adapter.Unregister(unregCtx); err != nil {
			app.logger.ErrorContext(unregCtx, "failed to withdraw subscriptions", logger.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Close stops the command dispatchers and releases the registry backend.
func (app *App) Close() {
	app.closeOnce.Do(func() {
		if app.callbacks != nil {
			app.callbacks.Stop()
		}
		if app.commands != nil {
			app.commands.Stop()
		}
		if app.backend.close != nil {
			app.backend.close()
		}
	})
}

func (app *App) Adapter() *adapter.Adapter     { return app.adapter }
func (app *App) Publisher() *adapter.Publisher { return app.publisher }
func (app *App) Bus() *event.Bus               { return app.bus }
func (app *App) Logger() *slog.Logger          { return app.logger }

func newLogger(cfg Config) *slog.Logger {
	name := cfg.Adapter.AppName
	var opts []logger.Option
	switch strings.ToLower(cfg.Env) {
	case "production", "prod":
		opts = append(opts, logger.WithProduction(name))
	case "staging":
		opts = append(opts, logger.WithStaging(name))
	default:
		opts = append(opts, logger.WithDevelopment(name))
	}

	var level slog.Level
	if cfg.LogLevel != "" && level.UnmarshalText([]byte(cfg.LogLevel)) == nil {
		opts = append(opts, logger.WithLevel(level))
	}
	return logger.New(opts...)
}

func WithLogger(l *slog.Logger) AppOption {
	return func(app *App) error {
		if l == nil {
			return errors.New("logger cannot be nil")
		}
		app.logger = l
		return nil
	}
}

// WithRegistry bypasses backend selection and uses r as is.
func WithRegistry(r subscription.Registry) AppOption {
	return func(app *App) error {
		if r == nil {
			return errors.New("registry cannot be nil")
		}
		app.registry = r
		return nil
	}
}

// WithHandlers subscribes local event handlers to the bus.
func WithHandlers(handlers ...event.Handler) AppOption {
	return func(app *App) error {
		app.handlers = append(app.handlers, handlers...)
		return nil
	}
}

// WithBindings declares the integration events this node consumes.
func WithBindings(bindings ...adapter.Binding) AppOption {
	return func(app *App) error {
		app.bindings = append(app.bindings, bindings...)
		return nil
	}
}

// WithAdapterOptions passes extra options, such as interceptors, to the adapter.
func WithAdapterOptions(opts ...adapter.Option) AppOption {
	return func(app *App) error {
		app.adapterOptions = append(app.adapterOptions, opts...)
		return nil
	}
}

// WithHealthchecks adds readiness checks beyond the registry backend's own.
func WithHealthchecks(checks ...func(context.Context) error) AppOption {
	return func(app *App) error {
		app.checks = append(app.checks, checks...)
		return nil
	}
}
