// Package command provides a type-safe command bus with synchronous and
// channel-backed transports, middleware, and unified panic recovery.
//
// Each command type maps to exactly one handler; dispatching a command with no
// handler is an error. Outbound HTTP calls to remote subscription registries
// and callback deliveries are modeled as commands, so they share logging,
// retries and panic recovery.
//
// # Quick Start
//
//	type SubscribeRemote struct {
//	    URL         string
//	    Event       string
//	    Subscriber  string
//	    CallbackURL string
//	}
//
//	dispatcher := command.NewDispatcher(command.WithLogger(log))
//	dispatcher.Register(command.NewHandlerFunc(func(ctx context.Context, cmd SubscribeRemote) error {
//	    return client.Subscribe(ctx, cmd)
//	}))
//
//	err := dispatcher.Dispatch(ctx, SubscribeRemote{Event: "OrderPaid"})
//
// # Transports
//
// WithSyncTransport (default) runs the handler on the caller's goroutine and
// returns its error. WithChannelTransport queues commands for worker goroutines;
// Dispatch returns ErrBufferFull instead of blocking, and handler errors go to
// the WithErrorHandler callback. Call Stop to drain the queue.
//
// # Decorators
//
// WithBackoff retries a handler with exponential delays, stopping early on
// errors wrapped with Permanent. WithTimeout bounds each call.
package command
