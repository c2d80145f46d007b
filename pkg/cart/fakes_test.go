package cart_test

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/pkg/apiclient"
	"github.com/dmitrymomot/storefront/pkg/broadcast"
	"github.com/dmitrymomot/storefront/pkg/cart"
	"github.com/dmitrymomot/storefront/pkg/logger"
)

type call struct {
	Method   string
	ID       string
	Quantity int
	Note     string
}

// fakeAPI is an in-memory server cart that records every call and can be
// told to fail the next call of a method.
type fakeAPI struct {
	mu      sync.Mutex
	catalog map[string]cart.Item
	items   []cart.Item
	calls   []call
	failing map[string][]error
}

func newFakeAPI(items ...cart.Item) *fakeAPI {
	api := &fakeAPI{
		catalog: map[string]cart.Item{
			"pizza": {ID: "pizza", Name: "Margherita", UnitPrice: decimal.RequireFromString("9.50")},
			"salad": {ID: "salad", Name: "Greek salad", UnitPrice: decimal.RequireFromString("6.25")},
			"soda":  {ID: "soda", Name: "Lemon soda", UnitPrice: decimal.RequireFromString("2.00")},
		},
		failing: make(map[string][]error),
	}
	api.items = append(api.items, items...)
	return api
}

func (f *fakeAPI) failNext(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[method] = append(f.failing[method], err)
}

func (f *fakeAPI) record(c call) error {
	f.calls = append(f.calls, c)
	if queue := f.failing[c.Method]; len(queue) > 0 {
		f.failing[c.Method] = queue[1:]
		return queue[0]
	}
	return nil
}

func (f *fakeAPI) callsOf(method string) []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeAPI) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Method != "fetch" {
			n++
		}
	}
	return n
}

func (f *fakeAPI) server() cart.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append(cart.Snapshot{}, f.items...)
}

func (f *fakeAPI) Fetch(ctx context.Context) ([]cart.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(call{Method: "fetch"}); err != nil {
		return nil, err
	}
	return slices.Clone(f.items), nil
}

func (f *fakeAPI) Add(ctx context.Context, id string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(call{Method: "add", ID: id, Quantity: quantity}); err != nil {
		return err
	}
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Quantity += quantity
			return nil
		}
	}
	item, ok := f.catalog[id]
	if !ok {
		return &apiclient.Failure{Status: http.StatusNotFound, Message: "unknown product"}
	}
	item.Quantity = quantity
	f.items = append(f.items, item)
	return nil
}

func (f *fakeAPI) Update(ctx context.Context, id string, quantity int, note string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(call{Method: "update", ID: id, Quantity: quantity, Note: note}); err != nil {
		return err
	}
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Quantity = quantity
			f.items[i].Note = note
			return nil
		}
	}
	return &apiclient.Failure{Status: http.StatusNotFound, Message: "not in cart"}
}

func (f *fakeAPI) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(call{Method: "delete", ID: id}); err != nil {
		return err
	}
	f.items = slices.DeleteFunc(f.items, func(it cart.Item) bool { return it.ID == id })
	return nil
}

func (f *fakeAPI) DeleteAll(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(call{Method: "delete_all"}); err != nil {
		return err
	}
	f.items = nil
	return nil
}

// manualTimers is an AfterFunc whose timers only fire when told to.
type manualTimers struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	owner   *manualTimers
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (m *manualTimers) AfterFunc(d time.Duration, f func()) cart.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{owner: m, delay: d, fn: f}
	m.timers = append(m.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// active returns timers neither stopped nor fired.
func (m *manualTimers) active() []*manualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*manualTimer
	for _, t := range m.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// fireAll runs every active timer on the calling goroutine.
func (m *manualTimers) fireAll() {
	due := m.active()
	m.mu.Lock()
	for _, t := range due {
		t.fired = true
	}
	m.mu.Unlock()
	for _, t := range due {
		t.fn()
	}
}

// topicCounter counts cart-changed publishes.
type topicCounter struct {
	n atomic.Int32
}

func (c *topicCounter) count() int { return int(c.n.Load()) }

type fixture struct {
	api    *fakeAPI
	bus    *broadcast.Bus
	timers *manualTimers
	cache  *cart.Cache
	events *topicCounter
}

func newFixture(t *testing.T, api *fakeAPI, opts ...cart.Option) *fixture {
	t.Helper()

	bus := broadcast.NewBus(broadcast.WithBusLogger(logger.Nop()))
	timers := &manualTimers{}
	base := []cart.Option{
		cart.WithAfterFunc(timers.AfterFunc),
		cart.WithResyncRetry(0, apiclient.FixedBackoff{Interval: time.Millisecond}),
		cart.WithLogger(logger.Nop()),
	}
	c, err := cart.New(api, bus, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	events := &topicCounter{}
	bus.Subscribe(broadcast.TopicCartChanged, func(context.Context, broadcast.Topic) { events.n.Add(1) })

	return &fixture{api: api, bus: bus, timers: timers, cache: c, events: events}
}

func (f *fixture) load(t *testing.T) {
	t.Helper()
	_, err := f.cache.Load(context.Background())
	require.NoError(t, err)
}

func serverError() error {
	return &apiclient.Failure{Status: http.StatusInternalServerError, Message: "boom"}
}

func pizza(qty int, note string) cart.Item {
	return cart.Item{ID: "pizza", Name: "Margherita", UnitPrice: decimal.RequireFromString("9.50"), Quantity: qty, Note: note}
}

func salad(qty int, note string) cart.Item {
	return cart.Item{ID: "salad", Name: "Greek salad", UnitPrice: decimal.RequireFromString("6.25"), Quantity: qty, Note: note}
}
