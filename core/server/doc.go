// Package server wraps http.Server with graceful shutdown and errgroup-friendly
// lifecycle management.
//
// # Basic Usage
//
//	srv, err := server.NewFromConfig(cfg, server.WithLogger(log))
//	if err != nil {
//		return err
//	}
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(srv.Run(ctx, router))
//	return g.Wait()
//
// Run serves until the context is cancelled, then calls Stop, which waits up
// to the shutdown timeout for in-flight requests. Requests keep the values of
// the context passed to Run but are not cancelled by it.
//
// Setting SERVER_TLS_CERT_FILE and SERVER_TLS_KEY_FILE serves HTTPS with TLS 1.2
// or newer.
package server
