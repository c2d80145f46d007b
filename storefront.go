package storefront

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/dmitrymomot/storefront/pkg/apiclient"
	"github.com/dmitrymomot/storefront/pkg/broadcast"
	"github.com/dmitrymomot/storefront/pkg/cart"
	"github.com/dmitrymomot/storefront/pkg/logger"
	"github.com/dmitrymomot/storefront/pkg/observer"
	"github.com/dmitrymomot/storefront/pkg/session"
	"github.com/dmitrymomot/storefront/pkg/storage"
)

// ErrNilStorage is returned by Open without a storage.
var ErrNilStorage = errors.New("storefront.nil_storage")

// Tab is one browsing context: a topic bus, the session store, the cart
// cache and the surfaces observing them, all sharing one remote API client.
//
// Storage changes made by other tabs on the credential or session keys are
// bridged onto the bus as auth-changed, so both same-tab and cross-tab
// changes reach observers through the same topic.
type Tab struct {
	Bus     *broadcast.Bus
	Session *session.Store
	Cart    *cart.Cache
	Badge   *observer.Badge
	Auth    *observer.AuthIndicator

	name   string
	client *apiclient.Client
	promos cart.Discounts
	logger *slog.Logger

	stopBridge  func()
	unsubscribe broadcast.Unsubscribe
	closeOnce   sync.Once
	closeErr    error
}

// Open wires a Tab over st against the remote API at apiURL. When st already
// holds a signed-in session the cart is loaded and cart-changed published; a
// failed load is logged and left for the next auth-changed or an explicit
// Cart.Load.
func Open(ctx context.Context, apiURL string, st storage.Storage, opts ...Option) (*Tab, error) {
	if st == nil {
		return nil, ErrNilStorage
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.name == "" {
		o.name = st.Origin()
	}
	ctx = logger.WithTab(ctx, o.name)

	t := &Tab{
		name:   o.name,
		Bus:    broadcast.NewBus(broadcast.WithBusLogger(o.logger)),
		promos: o.promos,
		logger: o.logger,
	}

	clientOpts := []apiclient.Option{
		apiclient.WithLogger(o.logger),
		apiclient.WithTimeout(o.timeout),
		apiclient.WithUserAgent(o.userAgent),
		apiclient.WithCredentials(apiclient.CredentialFunc(t.credential)),
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, apiclient.WithHTTPClient(o.httpClient))
	}
	client, err := apiclient.New(apiURL, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("storefront: api client: %w", err)
	}
	t.client = client

	store, err := session.New(st, t.Bus, session.NewRemoteAuthenticator(client),
		session.WithKeys(o.keys),
		session.WithLogger(o.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("storefront: session: %w", err)
	}
	t.Session = store

	cartOpts := []cart.Option{cart.WithLogger(o.logger)}
	if o.registerer != nil {
		cartOpts = append(cartOpts, cart.WithMetrics(o.registerer))
	}
	cache, err := cart.New(cart.NewRemoteAPI(client), t.Bus, append(cartOpts, o.cartOpts...)...)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("storefront: cart: %w", err)
	}
	t.Cart = cache

	// The store subscribed first, so its copy is already stale when this runs.
	t.unsubscribe = t.Bus.Subscribe(broadcast.TopicAuthChanged, t.syncCart)
	t.Badge = observer.NewBadge(t.Bus, cache, o.onCount)
	t.Auth = observer.NewAuthIndicator(ctx, t.Bus, store, o.onSession)

	keys := store.Keys()
	routes := map[string]broadcast.Topic{
		keys.Credential: broadcast.TopicAuthChanged,
		keys.Session:    broadcast.TopicAuthChanged,
	}
	bridgeCtx := context.WithoutCancel(ctx)
	t.stopBridge = broadcast.Bridge(bridgeCtx, t.Bus, st.Watch(bridgeCtx), routes, o.logger)

	if store.State(ctx) == session.Authenticated {
		if _, err := cache.Load(ctx); err != nil {
			t.logger.WarnContext(ctx, "initial cart load failed",
				logger.Component("storefront"),
				logger.Error(err),
			)
		} else {
			t.Bus.Publish(ctx, broadcast.TopicCartChanged)
		}
	}
	return t, nil
}

// Name returns the tab name used in log records.
func (t *Tab) Name() string { return t.name }

// Context tags ctx with the tab name for logging.
func (t *Tab) Context(ctx context.Context) context.Context {
	return logger.WithTab(ctx, t.name)
}

// Login signs in with email and password.
func (t *Tab) Login(ctx context.Context, email, password string) (*session.Session, error) {
	return t.Session.Login(t.Context(ctx), session.Credentials{Email: email, Password: password})
}

// Logout signs out. Other tabs sharing the storage follow.
func (t *Tab) Logout(ctx context.Context) error {
	return t.Session.Logout(t.Context(ctx))
}

// Total returns the cart subtotal discounted by code, and whether the code
// was recognised.
func (t *Tab) Total(code string) (decimal.Decimal, bool) {
	return t.Cart.ApplyPromo(code, t.promos)
}

// Close writes pending notes, then detaches every component. The storage is
// left open since other tabs may share it. Safe to call more than once.
func (t *Tab) Close(ctx context.Context) error {
	t.closeOnce.Do(func() {
		ctx = t.Context(ctx)
		var errs []error
		if err := t.Cart.Flush(ctx); err != nil {
			errs = append(errs, err)
		}
		t.stopBridge()
		t.Badge.Close()
		t.Auth.Close()
		t.unsubscribe()
		errs = append(errs,
			t.Cart.Close(),
			t.Session.Close(),
			t.Bus.Close(),
		)
		t.closeErr = errors.Join(errs...)
	})
	return t.closeErr
}

func (t *Tab) credential(ctx context.Context) string {
	if t.Session == nil {
		return ""
	}
	return t.Session.Credential(ctx)
}

// syncCart follows the session: a signed-in user gets the server cart, an
// anonymous tab an empty one.
func (t *Tab) syncCart(ctx context.Context, _ broadcast.Topic) {
	if t.Session.State(ctx) == session.Anonymous {
		t.Cart.Reset(ctx)
		return
	}
	if _, err := t.Cart.Load(ctx); err != nil {
		t.logger.WarnContext(ctx, "cart load after sign-in failed",
			logger.Component("storefront"),
			logger.Error(err),
		)
	}
	t.Bus.Publish(ctx, broadcast.TopicCartChanged)
}
