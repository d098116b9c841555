// Package adapter connects integration events received over HTTP to the
// in-process event bus, and registers this application's interest in them.
//
// # Bindings
//
// Each payload type is bound to an event target:
//
//	a := adapter.New(cfg, registry, bus,
//		adapter.WithBindings(
//			adapter.Bind[OrderPaid]("OrderPaid", ""),                                        // local
//			adapter.Bind[StockLow]("StockLow@${STOCK_URL}/integration-event/http/subscribe", ""), // remote
//		),
//		adapter.WithCommandDispatcher(commands),
//	)
//	report := a.Register(ctx)
//
// A target without "@" is local: Register writes the subscription straight into
// the registry. A target "event@url" is remote: Register dispatches a
// SubscribeRequest command that posts this application's callback URL to the
// producer. Empty targets and the subscriber NoneSubscriber are skipped; an
// empty subscriber means Config.AppName. Targets are resolved by New, so
// Consume works before Register has run. Register isolates each binding: a
// failing or panicking registry call is reported and the rest continue.
//
// Unregister withdraws only what this instance created. Subscriptions that
// already existed, for instance written by another replica, stay in place.
//
// # Delivery
//
// Consume looks up the type bound to the event, decodes the JSON payload, and
// dispatches it to the event bus. Interceptors registered with
// WithInterceptor run PreSubscribe before dispatch and PostSubscribe after it,
// in ascending order; a PreSubscribe hook may replace Message.Payload. Any
// failure yields false, and Deliver exposes the cause as a *DeliveryError.
//
// An event with no binding fails immediately with KindUnresolvedType.
//
// # Publishing
//
// Publisher sends an outgoing event to every subscriber in the registry as
// CallbackTriggerRequest commands.
package adapter
