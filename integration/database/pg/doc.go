// Package pg provides PostgreSQL connection management with migrations and health checking.
//
// It wraps pgx with retry logic on connect and runs goose migrations through
// the pgx stdlib adapter.
//
//   - Connect: creates a pool with retries and verifies it with a ping
//   - Migrate: applies goose migrations from an fs.FS (usually embedded)
//   - Healthcheck: returns a func(context.Context) error for readiness probes
//   - IsNotFoundError, IsDuplicateKeyError, IsForeignKeyViolationError, IsTxClosedError
//
// # Usage
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	//go:embed migrations/*.sql
//	var migrations embed.FS
//	sub, _ := fs.Sub(migrations, "migrations")
//	if err := pg.Migrate(ctx, pool, sub, cfg, log); err != nil {
//		return err
//	}
//
// # Transactions
//
// WithTx attaches a pgx.Tx to a context and TxFromContext retrieves it, so
// repositories can join a transaction started by the caller:
//
//	tx, err := pool.Begin(ctx)
//	if err != nil {
//		return err
//	}
//	defer tx.Rollback(ctx)
//
//	ctx = pg.WithTx(ctx, tx)
//	if _, err := registry.Subscribe(ctx, "OrderPaid", "billing-svc", url); err != nil {
//		return err
//	}
//	return tx.Commit(ctx)
package pg
