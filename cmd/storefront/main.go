// Command storefront runs the development API or a two-tab walkthrough of
// session and cart synchronization.
//
//	storefront serve   serve the in-memory API on STOREFRONT_HTTP_ADDR
//	storefront demo    open two tabs over STOREFRONT_STORAGE and sync them
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dmitrymomot/storefront/pkg/config"
	"github.com/dmitrymomot/storefront/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.LoadStorefront()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(logger.WithEnvironment(cfg.Env, cfg.AppName))
	logger.SetAsDefault(log)

	ctx := context.Background()
	switch os.Args[1] {
	case "serve":
		err = serve(ctx, cfg, log, os.Args[2:])
	case "demo":
		err = demo(ctx, cfg, log, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.ErrorContext(ctx, "storefront failed", logger.Error(err))
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: storefront serve|demo [flags]")
}

func fail(log *slog.Logger, msg string, err error) error {
	log.Error(msg, logger.Error(err))
	return fmt.Errorf("%s: %w", msg, err)
}
