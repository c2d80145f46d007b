// Package httpserver runs an http.Handler with graceful shutdown and
// provides liveness and readiness handlers.
//
// The storefront uses it to serve the development API from cmd/storefront:
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log), httpserver.WithSignals())
//	r := chi.NewRouter()
//	r.Get("/healthz", httpserver.Liveness())
//	r.Get("/readyz", httpserver.Readiness(log, map[string]httpserver.Check{"redis": redis.Healthcheck(client)}))
//	r.Mount("/api", api)
//	err := srv.Run(ctx, r)
//
// Run opens the listener before serving, so Ready and Addr can be used to
// discover a ":0" port. Errors wrap ErrStart or ErrShutdown.
package httpserver
