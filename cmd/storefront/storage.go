package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/storefront/pkg/config"
	"github.com/dmitrymomot/storefront/pkg/redis"
	"github.com/dmitrymomot/storefront/pkg/storage"
)

// openStorages returns n storage views over the configured backend, as n
// tabs of one browser would see it, and a func releasing the backend.
func openStorages(ctx context.Context, cfg config.Storefront, log *slog.Logger, n int) ([]storage.Storage, func(), error) {
	views := make([]storage.Storage, 0, n)

	switch cfg.Storage {
	case config.StorageFile:
		for range n {
			st, err := storage.NewFileStorage(cfg.StorageFile)
			if err != nil {
				return nil, nil, err
			}
			views = append(views, st)
		}
		return views, func() {}, nil

	case config.StorageRedis:
		client, err := redis.Connect(ctx, cfg.Redis, log)
		if err != nil {
			return nil, nil, err
		}
		for range n {
			views = append(views, storage.NewRedisStorage(client,
				storage.WithRedisPrefix(cfg.StoragePrefix),
				storage.WithRedisLogger(log),
			))
		}
		return views, func() { _ = client.Close() }, nil

	case config.StorageMemory:
		backend := storage.NewMemoryBackend()
		for range n {
			views = append(views, backend.Open())
		}
		return views, func() { _ = backend.Close() }, nil
	}
	return nil, nil, errors.Join(config.ErrInvalidStorage, errors.New(cfg.Storage))
}
