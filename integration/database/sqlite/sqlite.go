package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
	_ "modernc.org/sqlite"

	"github.com/dmitrymomot/eventhttp/core/logger"
)

var (
	ErrEmptyPath               = errors.New("empty sqlite database path")
	ErrFailedToOpen            = errors.New("failed to open sqlite database")
	ErrHealthcheckFailed       = errors.New("sqlite healthcheck failed")
	ErrFailedToApplyMigrations = errors.New("failed to apply migrations")
	ErrMigrationsNotProvided   = errors.New("migrations filesystem not provided")
)

// Config holds SQLite settings.
type Config struct {
	Path            string        `env:"SQLITE_PATH" envDefault:"eventhttp.db"`
	BusyTimeout     time.Duration `env:"SQLITE_BUSY_TIMEOUT" envDefault:"5s"`
	MaxOpenConns    int           `env:"SQLITE_MAX_OPEN_CONNS" envDefault:"1"`
	MigrationsTable string        `env:"SQLITE_MIGRATIONS_TABLE" envDefault:"schema_migrations"`
}

// Open opens the database with WAL journaling and a busy timeout applied to
// every pooled connection, then pings it.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	if cfg.Path == "" {
		return nil, ErrEmptyPath
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		cfg.Path, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Join(ErrFailedToOpen, err)
	}

	conns := max(cfg.MaxOpenConns, 1)
	db.SetMaxOpenConns(conns)
	db.SetMaxIdleConns(conns)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Join(ErrFailedToOpen, err)
	}
	return db, nil
}

// Migrate applies the goose migrations found at the root of migrations.
func Migrate(ctx context.Context, db *sql.DB, migrations fs.FS, cfg Config, log *slog.Logger) error {
	if migrations == nil {
		return ErrMigrationsNotProvided
	}
	if log == nil {
		log = logger.Discard()
	}

	table := cfg.MigrationsTable
	if table == "" {
		table = "schema_migrations"
	}
	store, err := database.NewStore(database.DialectSQLite3, table)
	if err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	provider, err := goose.NewProvider("", db, migrations, goose.WithStore(store))
	if err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	for _, r := range results {
		log.InfoContext(ctx, "migration applied",
			logger.Key("version", r.Source.Version),
			logger.Duration(r.Duration))
	}
	return nil
}

// Healthcheck returns a readiness check that pings db.
func Healthcheck(db *sql.DB) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
