// Package sqlitestore is the embedded SQLite subscription.Registry backend,
// for single-node deployments that need subscriptions to survive restarts
// without an external database.
package sqlitestore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/eventhttp/core/logger"
	"github.com/dmitrymomot/eventhttp/core/subscription"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrations returns the goose migrations that create the subscriptions table.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

const (
	insertQuery = `INSERT INTO integration_event_subscriptions (id, event, subscriber, callback_url, version)
VALUES (?, ?, ?, ?, 0)
ON CONFLICT (event, subscriber) DO NOTHING`

	deleteQuery = `DELETE FROM integration_event_subscriptions WHERE event = ? AND subscriber = ?`

	eventsQuery = `SELECT DISTINCT event FROM integration_event_subscriptions`

	subscribersQuery = `SELECT id, event, subscriber, callback_url, version
FROM integration_event_subscriptions
WHERE event = ?
ORDER BY rowid`
)

// Store implements subscription.Registry on SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Store. The schema must already be migrated.
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, logger: logger.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ subscription.Registry = (*Store)(nil)

func (s *Store) Subscribe(ctx context.Context, event, subscriber, callbackURL string) (bool, error) {
	if err := subscription.Validate(event, subscriber, callbackURL); err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx, insertQuery, uuid.NewString(), event, subscriber, callbackURL)
	if err != nil {
		return false, fmt.Errorf("sqlitestore: subscribe: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlitestore: subscribe: %w", err)
	}
	if n == 0 {
		s.logger.DebugContext(ctx, "subscription already exists",
			logger.Event(event), logger.Subscriber(subscriber))
		return false, nil
	}
	return true, nil
}

func (s *Store) Unsubscribe(ctx context.Context, event, subscriber string) (bool, error) {
	if err := subscription.ValidateKey(event, subscriber); err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx, deleteQuery, event, subscriber)
	if err != nil {
		return false, fmt.Errorf("sqlitestore: unsubscribe: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlitestore: unsubscribe: %w", err)
	}
	return n > 0, nil
}

func (s *Store) Events(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, eventsQuery)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: events: %w", err)
	}
	defer rows.Close()

	events := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("sqlitestore: events: %w", err)
		}
		events = append(events, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlitestore: events: %w", err)
	}
	return events, nil
}

func (s *Store) Subscribers(ctx context.Context, event string) ([]subscription.Subscription, error) {
	rows, err := s.db.QueryContext(ctx, subscribersQuery, event)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: subscribers: %w", err)
	}
	defer rows.Close()

	subs := make([]subscription.Subscription, 0)
	for rows.Next() {
		var rec subscription.Record
		if err := rows.Scan(&rec.ID, &rec.Event, &rec.Subscriber, &rec.CallbackURL, &rec.Version); err != nil {
			return nil, fmt.Errorf("sqlitestore: subscribers: %w", err)
		}
		subs = append(subs, rec.Subscription())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlitestore: subscribers: %w", err)
	}
	return subs, nil
}
