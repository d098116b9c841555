// Package service assembles a runnable eventhttp node: a subscription registry
// backend chosen by EVENTHTTP_REGISTRY, the local event bus, the command
// dispatchers for outbound HTTP calls, the subscription adapter, and an HTTP
// server exposing the integration-event endpoints with health probes and
// Prometheus metrics.
//
// Embedding applications declare what they consume and handle it locally:
//
//	app, err := service.NewAppFromEnv(ctx,
//		service.WithBindings(
//			adapter.Bind[OrderPaid]("OrderPaid@${ORDERS_URL}/integration-event/http/subscribe", "billing"),
//		),
//		service.WithHandlers(
//			event.NewHandlerFunc(func(ctx context.Context, e OrderPaid) error {
//				return billing.Charge(ctx, e.OrderID)
//			}),
//		),
//	)
//	if err != nil {
//		return err
//	}
//	return app.Run(ctx)
package service
