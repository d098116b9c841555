package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/eventhttp/core/config"
	"github.com/dmitrymomot/eventhttp/core/subscription"
	"github.com/dmitrymomot/eventhttp/integration/database/mongo"
	"github.com/dmitrymomot/eventhttp/integration/database/pg"
	"github.com/dmitrymomot/eventhttp/integration/database/redis"
	"github.com/dmitrymomot/eventhttp/integration/database/sqlite"
	"github.com/dmitrymomot/eventhttp/integration/subscription/mongostore"
	"github.com/dmitrymomot/eventhttp/integration/subscription/pgstore"
	"github.com/dmitrymomot/eventhttp/integration/subscription/redisstore"
	"github.com/dmitrymomot/eventhttp/integration/subscription/sqlitestore"
)

// ErrUnknownRegistry is returned for an unsupported EVENTHTTP_REGISTRY value.
var ErrUnknownRegistry = errors.New("unknown registry backend")

// backend is an opened registry with its readiness check and cleanup.
type backend struct {
	registry subscription.Registry
	check    func(context.Context) error
	close    func()
}

func openBackend(ctx context.Context, kind string, log *slog.Logger) (backend, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", RegistryMemory:
		return backend{
			registry: subscription.NewMemoryRegistry(subscription.WithMemoryLogger(log)),
			close:    func() {},
		}, nil

	case RegistryPostgres, "pg":
		var cfg pg.Config
		if err := config.Load(&cfg); err != nil {
			return backend{}, err
		}
		pool, err := pg.Connect(ctx, cfg)
		if err != nil {
			return backend{}, err
		}
		if err := pg.Migrate(ctx, pool, pgstore.Migrations(), cfg, log); err != nil {
			pool.Close()
			return backend{}, err
		}
		return backend{
			registry: pgstore.New(pool, pgstore.WithLogger(log)),
			check:    pg.Healthcheck(pool),
			close:    pool.Close,
		}, nil

	case RegistrySQLite:
		var cfg sqlite.Config
		if err := config.Load(&cfg); err != nil {
			return backend{}, err
		}
		db, err := sqlite.Open(ctx, cfg)
		if err != nil {
			return backend{}, err
		}
		if err := sqlite.Migrate(ctx, db, sqlitestore.Migrations(), cfg, log); err != nil {
			_ = db.Close()
			return backend{}, err
		}
		return backend{
			registry: sqlitestore.New(db, sqlitestore.WithLogger(log)),
			check:    sqlite.Healthcheck(db),
			close:    func() { _ = db.Close() },
		}, nil

	case RegistryRedis:
		var cfg redis.Config
		if err := config.Load(&cfg); err != nil {
			return backend{}, err
		}
		client, err := redis.Connect(ctx, cfg)
		if err != nil {
			return backend{}, err
		}
		return backend{
			registry: redisstore.New(client, redisstore.WithPrefix(cfg.KeyPrefix), redisstore.WithLogger(log)),
			check:    redis.Healthcheck(client),
			close:    func() { _ = client.Close() },
		}, nil

	case RegistryMongo, "mongodb":
		var cfg mongo.Config
		if err := config.Load(&cfg); err != nil {
			return backend{}, err
		}
		db, err := mongo.NewWithDatabase(ctx, cfg)
		if err != nil {
			return backend{}, err
		}
		closeFn := func() { _ = db.Client().Disconnect(context.Background()) }
		store, err := mongostore.New(ctx, db, mongostore.WithLogger(log))
		if err != nil {
			closeFn()
			return backend{}, err
		}
		return backend{
			registry: store,
			check:    mongo.Healthcheck(db.Client()),
			close:    closeFn,
		}, nil
	}

	return backend{}, fmt.Errorf("%w: %q", ErrUnknownRegistry, kind)
}
