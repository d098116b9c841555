// Package sqlite opens embedded SQLite databases through the pure Go
// modernc.org/sqlite driver and applies goose migrations to them.
//
//	db, err := sqlite.Open(ctx, sqlite.Config{Path: "eventhttp.db", BusyTimeout: 5 * time.Second})
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//
//	if err := sqlite.Migrate(ctx, db, migrations, cfg, log); err != nil {
//		return err
//	}
//
// MaxOpenConns defaults to 1, which serializes writers and avoids SQLITE_BUSY
// under concurrent inserts.
package sqlite
