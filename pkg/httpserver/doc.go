// Package httpserver runs the HTTP API with graceful shutdown.
//
// Run blocks until its context is cancelled or the process receives SIGINT
// or SIGTERM, then calls http.Server.Shutdown with the configured deadline
// and runs any WithShutdownFunc callbacks so the caller can release pools.
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//	    return err
//	}
//
// Serve accepts an existing listener, which tests use to bind 127.0.0.1:0.
package httpserver
