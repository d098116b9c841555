package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/eventhttp/integration/database/sqlite"
)

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("empty path", func(t *testing.T) {
		t.Parallel()
		_, err := sqlite.Open(context.Background(), sqlite.Config{})
		require.ErrorIs(t, err, sqlite.ErrEmptyPath)
	})

	t.Run("opens and pings", func(t *testing.T) {
		t.Parallel()
		db, err := sqlite.Open(context.Background(), sqlite.Config{
			Path:        filepath.Join(t.TempDir(), "test.db"),
			BusyTimeout: time.Second,
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })

		assert.NoError(t, sqlite.Healthcheck(db)(context.Background()))
	})
}

func TestMigrate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := sqlite.Config{Path: filepath.Join(t.TempDir(), "test.db")}
	db, err := sqlite.Open(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	migrations := fstest.MapFS{
		"00001_init.sql": &fstest.MapFile{Data: []byte(`-- +goose Up
CREATE TABLE widgets (id INTEGER PRIMARY KEY);

-- +goose Down
DROP TABLE widgets;
`)},
	}

	require.NoError(t, sqlite.Migrate(ctx, db, migrations, cfg, nil))
	// second run is a no-op
	require.NoError(t, sqlite.Migrate(ctx, db, migrations, cfg, nil))

	_, err = db.ExecContext(ctx, "INSERT INTO widgets (id) VALUES (1)")
	assert.NoError(t, err)

	require.ErrorIs(t, sqlite.Migrate(ctx, db, nil, cfg, nil), sqlite.ErrMigrationsNotProvided)
}
