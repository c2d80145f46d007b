package storefront

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/storefront/pkg/apiclient"
	"github.com/dmitrymomot/storefront/pkg/cart"
	"github.com/dmitrymomot/storefront/pkg/session"
)

// Option configures a Tab.
type Option func(*options)

type options struct {
	name       string
	logger     *slog.Logger
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	keys       session.Keys
	promos     cart.Discounts
	registerer prometheus.Registerer
	onCount    func(int)
	onSession  func(*session.Session)
	cartOpts   []cart.Option
}

func defaultOptions() *options {
	return &options{
		logger:  slog.Default(),
		timeout: apiclient.DefaultTimeout,
		keys:    session.DefaultKeys,
	}
}

// WithName names the tab in log records. Defaults to the storage origin.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogger sets the logger shared by every component of the tab.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithHTTPClient sets the HTTP client used to reach the remote API.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithTimeout bounds every remote call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.timeout = d
		}
	}
}

// WithUserAgent overrides the User-Agent sent to the remote API.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}

// WithSessionKeys overrides the storage keys owned by the session store.
// Every tab sharing storage must use the same keys.
func WithSessionKeys(keys session.Keys) Option {
	return func(o *options) {
		if keys.Credential != "" && keys.Session != "" {
			o.keys = keys
		}
	}
}

// WithPromos sets the promo table used by Tab.Total.
func WithPromos(d cart.Discounts) Option {
	return func(o *options) {
		o.promos = d
	}
}

// WithMetrics registers cart metrics on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithBadgeHandler is called with the new item count after every
// cart-changed publish.
func WithBadgeHandler(fn func(count int)) Option {
	return func(o *options) {
		o.onCount = fn
	}
}

// WithSessionHandler is called with the current session, nil when
// anonymous, after every auth-changed publish.
func WithSessionHandler(fn func(sess *session.Session)) Option {
	return func(o *options) {
		o.onSession = fn
	}
}

// WithCartOptions passes extra options to the cart cache, e.g. a note delay
// or a failure handler.
func WithCartOptions(opts ...cart.Option) Option {
	return func(o *options) {
		o.cartOpts = append(o.cartOpts, opts...)
	}
}
