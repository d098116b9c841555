// Package mongo connects to MongoDB with retry and ping verification.
//
// New returns a *mongo.Client once a primary ping succeeds. NewWithDatabase is a
// shortcut returning the configured database. Healthcheck pings the primary and
// can be registered as a readiness check.
//
//	db, err := mongo.NewWithDatabase(ctx, mongo.Config{
//		ConnectionURL: "mongodb://localhost:27017",
//		Database:      "eventhttp",
//		RetryAttempts: 3,
//		RetryInterval: time.Second,
//	})
//	if err != nil {
//		return err
//	}
//	defer db.Client().Disconnect(context.Background())
//
// Errors:
//
//	ErrEmptyConnectionURL     - MONGODB_URL is not set
//	ErrFailedToConnectToMongo - all retry attempts are exhausted
//	ErrHealthcheckFailed      - health check ping failed
package mongo
