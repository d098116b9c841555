// Package async runs error-returning functions on goroutines and waits for them
// through futures.
//
//	futures := make([]*async.ExecFuture, 0, len(targets))
//	for _, t := range targets {
//		futures = append(futures, async.Exec(ctx, t, register))
//	}
//	if err := async.ExecAll(futures...); err != nil {
//		// err joins every failure
//	}
//
// Exec recovers panics into ErrPanic. AwaitWithTimeout returns ErrTimeout
// without stopping the running function.
package async
