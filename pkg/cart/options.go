package cart

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/storefront/pkg/apiclient"
)

// DefaultNoteDelay is the quiet period before a note edit is written.
const DefaultNoteDelay = 800 * time.Millisecond

// DefaultResyncRetries bounds extra reload attempts after a failure.
const DefaultResyncRetries = 2

// Timer is a stoppable pending call.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it via
// RealAfterFunc; tests substitute a manual clock.
type AfterFunc func(d time.Duration, f func()) Timer

// RealAfterFunc schedules f with time.AfterFunc.
func RealAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// FailureHandler receives failures of debounced writes, which have no
// caller to return to.
type FailureHandler func(ctx context.Context, err *MutationError)

// Option configures a Cache.
type Option func(*Cache)

// WithNoteDelay sets the note debounce period.
func WithNoteDelay(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.noteDelay = d
		}
	}
}

// WithAfterFunc replaces the timer used for note debouncing.
func WithAfterFunc(fn AfterFunc) Option {
	return func(c *Cache) {
		if fn != nil {
			c.afterFunc = fn
		}
	}
}

// WithResyncRetry sets how many times a failed reload is retried and the
// wait between attempts. Only connectivity and server failures are retried.
func WithResyncRetry(maxRetries int, strategy apiclient.BackoffStrategy) Option {
	return func(c *Cache) {
		if maxRetries >= 0 {
			c.retries = maxRetries
		}
		if strategy != nil {
			c.backoff = strategy
		}
	}
}

// WithMetrics registers the cache counters with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Cache) {
		c.metrics = newMetrics(reg)
	}
}

// WithLogger sets the cache logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithFailureHandler sets the callback for failed debounced note writes.
func WithFailureHandler(fn FailureHandler) Option {
	return func(c *Cache) {
		c.onFailure = fn
	}
}
