// Package subscription defines the registry of integration-event subscriptions
// and ships the volatile in-memory backend.
//
// A Subscription ties one subscriber application to one event together with the
// callback URL the producer must call to deliver matching payloads. The registry
// holds at most one Subscription per (event, subscriber) pair:
//
//	reg := subscription.NewMemoryRegistry()
//
//	ok, _ := reg.Subscribe(ctx, "OrderPaid", "billing-svc", "http://billing/cb")
//	// ok == true
//
//	ok, _ = reg.Subscribe(ctx, "OrderPaid", "billing-svc", "http://other/cb")
//	// ok == false, the original callback is kept
//
//	subs, _ := reg.Subscribers(ctx, "OrderPaid")
//	// [{OrderPaid billing-svc http://billing/cb}]
//
// Re-subscribing with a different callback requires Unsubscribe followed by
// Subscribe; there is no update operation.
//
// Durable backends live under integration/subscription and must behave the same
// way. Use the subscriptiontest package to run the shared contract suite against
// a backend.
package subscription
