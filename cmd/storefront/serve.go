package main

import (
	"context"
	"flag"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/storefront/internal/fakeapi"
	"github.com/dmitrymomot/storefront/pkg/config"
	"github.com/dmitrymomot/storefront/pkg/httpserver"
	"github.com/dmitrymomot/storefront/pkg/logger"
	"github.com/dmitrymomot/storefront/pkg/redis"
)

func serve(ctx context.Context, cfg config.Storefront, log *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	tokenTTL := fs.Duration("token-ttl", fakeapi.DefaultTokenTTL, "lifetime of issued credentials")
	if err := fs.Parse(args); err != nil {
		return err
	}

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log), httpserver.WithSignals())
	router, cleanup, err := apiRouter(ctx, cfg, log, *tokenTTL)
	if err != nil {
		return err
	}
	defer cleanup()
	return srv.Run(ctx, router)
}

// apiRouter mounts a seeded fake API under /api next to health probes. With
// redis storage selected, readiness also pings Redis.
func apiRouter(ctx context.Context, cfg config.Storefront, log *slog.Logger, tokenTTL time.Duration) (*chi.Mux, func(), error) {
	api := fakeapi.New(fakeapi.WithLogger(log), fakeapi.WithTokenTTL(tokenTTL))
	uid, err := fakeapi.Seed(api)
	if err != nil {
		return nil, nil, fail(log, "seed api", err)
	}
	log.InfoContext(ctx, "demo customer ready",
		logger.Component("fakeapi"),
		logger.UserID(uid),
		slog.String("email", fakeapi.DemoEmail),
	)

	checks := map[string]httpserver.Check{}
	cleanup := func() {}
	if cfg.Storage == config.StorageRedis {
		client, err := redis.Connect(ctx, cfg.Redis, log)
		if err != nil {
			return nil, nil, fail(log, "connect redis", err)
		}
		checks["redis"] = redis.Healthcheck(client)
		cleanup = func() { _ = client.Close() }
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP)
	r.Get("/healthz", httpserver.Liveness())
	r.Get("/readyz", httpserver.Readiness(log, checks))
	r.Mount("/api", api)
	return r, cleanup, nil
}
