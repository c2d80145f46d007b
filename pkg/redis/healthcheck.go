package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Healthcheck returns the readiness check `storefront serve` registers as
// "redis" when STOREFRONT_STORAGE=redis: it pings the server that holds the
// shared session keys and carries cross-tab change announcements. A failed
// ping wraps ErrHealthcheckFailed, turning /readyz into 503.
func Healthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
