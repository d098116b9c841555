// Package redis creates go-redis clients with connection verification and
// provides a health check for readiness probes.
//
// Connect accepts redis:// and rediss:// URLs and pings the server with
// linear backoff between attempts:
//
//	client, err := redis.Connect(ctx, redis.Config{
//		ConnectionURL: "redis://localhost:6379/0",
//		RetryAttempts: 3,
//		RetryInterval: time.Second,
//	})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
// Config is designed for github.com/caarlos0/env: REDIS_URL, REDIS_RETRY_ATTEMPTS,
// REDIS_RETRY_INTERVAL, REDIS_CONNECT_TIMEOUT and REDIS_KEY_PREFIX.
package redis
