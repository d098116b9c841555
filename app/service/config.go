package service

import (
	"time"

	"github.com/dmitrymomot/eventhttp/core/adapter"
	"github.com/dmitrymomot/eventhttp/core/server"
	"github.com/dmitrymomot/eventhttp/pkg/webhook"
)

// Registry backend names accepted by Config.Registry.
const (
	RegistryMemory   = "memory"
	RegistryPostgres = "postgres"
	RegistrySQLite   = "sqlite"
	RegistryRedis    = "redis"
	RegistryMongo    = "mongo"
)

type Config struct {
	Adapter adapter.Config
	Server  server.Config
	Webhook webhook.Config

	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Backend-specific settings (PG_*, SQLITE_*, REDIS_*, MONGODB_*) are loaded
	// only for the selected backend.
	Registry string `env:"EVENTHTTP_REGISTRY" envDefault:"memory"`

	CallbackWorkers   int           `env:"EVENTHTTP_CALLBACK_WORKERS" envDefault:"4"`
	CallbackBuffer    int           `env:"EVENTHTTP_CALLBACK_BUFFER" envDefault:"256"`
	RetryAttempts     int           `env:"EVENTHTTP_RETRY_ATTEMPTS" envDefault:"5"`
	RetryInitialDelay time.Duration `env:"EVENTHTTP_RETRY_INITIAL_DELAY" envDefault:"500ms"`
	RetryMaxDelay     time.Duration `env:"EVENTHTTP_RETRY_MAX_DELAY" envDefault:"30s"`
	UnregisterTimeout time.Duration `env:"EVENTHTTP_UNREGISTER_TIMEOUT" envDefault:"10s"`
}
