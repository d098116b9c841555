// Package logger provides structured logging utilities built on Go's standard slog package.
//
// New builds a *slog.Logger from options, and the attribute helpers give common
// keys a single spelling across the codebase:
//
//	log := logger.New(
//		logger.WithProduction("billing-svc"),
//		logger.WithContextExtractors(func(ctx context.Context) (slog.Attr, bool) {
//			if id := event.EventID(ctx); id != "" {
//				return logger.EventID(id), true
//			}
//			return slog.Attr{}, false
//		}),
//	)
//
//	log.InfoContext(ctx, "integration event consumed",
//		logger.Event("OrderPaid"),
//		logger.Subscriber("billing-svc"),
//		logger.Error(err), // empty attr when err is nil
//	)
//
// Helpers return an empty slog.Attr for zero inputs where a key would carry no
// information, so callers never need nil checks.
package logger
