package cart_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/pkg/apiclient"
	"github.com/dmitrymomot/storefront/pkg/broadcast"
	"github.com/dmitrymomot/storefront/pkg/cart"
)

func TestNew_NilDependencies(t *testing.T) {
	t.Parallel()

	_, err := cart.New(nil, broadcast.NewBus())
	assert.ErrorIs(t, err, cart.ErrNilDependency)
	_, err = cart.New(newFakeAPI(), nil)
	assert.ErrorIs(t, err, cart.ErrNilDependency)
}

func TestCache_Load(t *testing.T) {
	t.Parallel()

	t.Run("replaces snapshot without publishing", func(t *testing.T) {
		f := newFixture(t, newFakeAPI(pizza(2, ""), salad(1, "no olives")))

		snap, err := f.cache.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, f.api.server(), snap)
		assert.Equal(t, snap, f.cache.Snapshot())
		assert.Equal(t, 3, f.cache.Count())
		assert.Zero(t, f.events.count())
	})

	t.Run("drops duplicate and empty lines", func(t *testing.T) {
		f := newFixture(t, newFakeAPI(pizza(2, ""), pizza(5, "dup"), salad(0, "")))
		f.load(t)

		assert.Equal(t, cart.Snapshot{pizza(2, "")}, f.cache.Snapshot())
	})

	t.Run("failure is retryable and keeps snapshot", func(t *testing.T) {
		f := newFixture(t, newFakeAPI(pizza(1, "")))
		f.load(t)
		f.api.failNext("fetch", &apiclient.Failure{Status: 0, Message: apiclient.ConnectivityMessage})

		_, err := f.cache.Load(context.Background())
		require.Error(t, err)
		assert.True(t, apiclient.Classify(err).Retryable())

		var merr *cart.MutationError
		require.ErrorAs(t, err, &merr)
		assert.Equal(t, cart.OpLoad, merr.Op)
		assert.Equal(t, apiclient.NoticeConnectivity, merr.Notice())
		assert.Equal(t, cart.Snapshot{pizza(1, "")}, f.cache.Snapshot())
	})

	t.Run("retries connectivity failures", func(t *testing.T) {
		api := newFakeAPI(pizza(1, ""))
		f := newFixture(t, api, cart.WithResyncRetry(2, apiclient.FixedBackoff{Interval: time.Millisecond}))
		api.failNext("fetch", &apiclient.Failure{Status: 0, Message: apiclient.ConnectivityMessage})
		api.failNext("fetch", serverError())

		f.load(t)
		assert.Len(t, api.callsOf("fetch"), 3)
		assert.Equal(t, 1, f.cache.Count())
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		api := newFakeAPI()
		f := newFixture(t, api, cart.WithResyncRetry(3, apiclient.FixedBackoff{Interval: time.Millisecond}))
		api.failNext("fetch", &apiclient.Failure{Status: http.StatusForbidden, Message: "nope"})

		_, err := f.cache.Load(context.Background())
		require.Error(t, err)
		assert.Len(t, api.callsOf("fetch"), 1)
	})
}

func TestCache_Add(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("writes then reloads", func(t *testing.T) {
		f := newFixture(t, newFakeAPI())
		f.load(t)

		require.NoError(t, f.cache.Add(ctx, "pizza", 1))
		assert.Equal(t, cart.Snapshot{pizza(1, "")}, f.cache.Snapshot())
		assert.Equal(t, 1, f.events.count())
		assert.Len(t, f.api.callsOf("fetch"), 2)
	})

	t.Run("invalid quantity", func(t *testing.T) {
		f := newFixture(t, newFakeAPI())
		assert.ErrorIs(t, f.cache.Add(ctx, "pizza", 0), cart.ErrInvalidQuantity)
		assert.Zero(t, f.api.writeCount())
		assert.Zero(t, f.events.count())
	})

	t.Run("failure reloads and reports", func(t *testing.T) {
		f := newFixture(t, newFakeAPI())
		f.load(t)

		err := f.cache.Add(ctx, "lobster", 1)
		var merr *cart.MutationError
		require.ErrorAs(t, err, &merr)
		assert.Equal(t, cart.OpAdd, merr.Op)
		assert.Equal(t, "lobster", merr.ItemID)
		assert.Equal(t, http.StatusNotFound, apiclient.StatusOf(err))
		assert.Equal(t, apiclient.NoticeValidation, merr.Notice())
		assert.Empty(t, f.cache.Snapshot())
		assert.Equal(t, 1, f.events.count())
	})
}

func TestCache_SetQuantity(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("optimistic write carries the current note", func(t *testing.T) {
		f := newFixture(t, newFakeAPI(pizza(1, "extra basil")))
		f.load(t)

		require.NoError(t, f.cache.SetQuantity(ctx, "pizza", 3))
		assert.Equal(t, []call{{Method: "update", ID: "pizza", Quantity: 3, Note: "extra basil"}}, f.api.callsOf("update"))
		assert.Equal(t, cart.Snapshot{pizza(3, "extra basil")}, f.cache.Snapshot())
		assert.Equal(t, f.api.server(), f.cache.Snapshot())
		assert.Equal(t, 1, f.events.count())
	})

	t.Run("failure rolls back to the server snapshot", func(t *testing.T) {
		f := newFixture(t, newFakeAPI(pizza(1, ""), salad(2, "")))
		f.load(t)
		f.api.failNext("update", serverError())

		err := f.cache.SetQuantity(ctx, "pizza", 7)
		var merr *cart.MutationError
		require.ErrorAs(t, err, &merr)
		assert.Equal(t, cart.OpSetQuantity, merr.Op)
		assert.Equal(t, "We couldn't update the quantity. Your cart has been refreshed.", merr.Notice())

		assert.Equal(t, f.api.server(), f.cache.Snapshot())
		assert.Equal(t, 3, f.cache.Count())
		assert.Equal(t, 1, f.events.count())
	})

	t.Run("zero behaves as remove", func(t *testing.T) {
		f := newFixture(t, newFakeAPI(pizza(2, ""), salad(1, "")))
		f.load(t)

		require.NoError(t, f.cache.SetQuantity(ctx, "pizza", 0))
		assert.Equal(t, []call{{Method: "delete", ID: "pizza"}}, f.api.callsOf("delete"))
		assert.Empty(t, f.api.callsOf("update"))
		assert.Equal(t, cart.Snapshot{salad(1, "")}, f.cache.Snapshot())
		assert.Equal(t, 1, f.events.count())
	})

	t.Run("cancels the pending note write and sends the note", func(t *testing.T) {
		f := newFixture(t, newFakeAPI(pizza(1, "")))
		f.load(t)

		require.NoError(t, f.cache.SetNote(ctx, "pizza", "well done"))
		require.NoError(t, f.cache.SetQuantity(ctx, "pizza", 2))
		assert.Empty(t, f.cache.PendingNotes())

		f.timers.fireAll()
		assert.Equal(t, []call{{Method: "update", ID: "pizza", Quantity: 2, Note: "well done"}}, f.api.callsOf("update"))
	})
}

func TestCache_UnknownItem(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, newFakeAPI(pizza(1, "")))
	f.load(t)

	assert.ErrorIs(t, f.cache.SetQuantity(ctx, "ghost", 2), cart.ErrItemNotFound)
	assert.ErrorIs(t, f.cache.SetQuantity(ctx, "ghost", 0), cart.ErrItemNotFound)
	assert.ErrorIs(t, f.cache.SetNote(ctx, "ghost", "hi"), cart.ErrItemNotFound)
	assert.ErrorIs(t, f.cache.Remove(ctx, "ghost"), cart.ErrItemNotFound)

	assert.Zero(t, f.api.writeCount())
	assert.Zero(t, f.events.count())
	assert.Empty(t, f.cache.PendingNotes())
}

func TestCache_SetNote(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("debounces to the last edit", func(t *testing.T) {
		f := newFixture(t, newFakeAPI(pizza(1, "")))
		f.load(t)

		require.NoError(t, f.cache.SetNote(ctx, "pizza", "a"))
		require.NoError(t, f.cache.SetNote(ctx, "pizza", "ab"))
		assert.Equal(t, "ab", must(f.cache.Snapshot().Find("pizza")).Note)
		assert.Empty(t, f.api.callsOf("update"))
		assert.Len(t, f.timers.active(), 1)
		assert.Equal(t, cart.DefaultNoteDelay, f.timers.active()[0].delay)

		f.timers.fireAll()
		assert.Equal(t, []call{{Method: "update", ID: "pizza", Quantity: 1, Note: "ab"}}, f.api.callsOf("update"))
		assert.Equal(t, 2, f.events.count())
		assert.Equal(t, f.api.server(), f.cache.Snapshot())
	})

	t.Run("items debounce independently", func(t *testing.T) {
		f := newFixture(t, newFakeAPI(pizza(1, ""), salad(1, "")), cart.WithNoteDelay(50*time.Millisecond))
		f.load(t)

		require.NoError(t, f.cache.SetNote(ctx, "pizza", "crispy"))
		require.NoError(t, f.cache.SetNote(ctx, "salad", "no onions"))
		require.NoError(t, f.cache.SetNote(ctx, "salad", "no olives"))
		assert.Equal(t, []string{"pizza", "salad"}, f.cache.PendingNotes())
		assert.Equal(t, 50*time.Millisecond, f.timers.active()[0].delay)

		f.timers.fireAll()
		assert.ElementsMatch(t, []call{
			{Method: "update", ID: "pizza", Quantity: 1, Note: "crispy"},
			{Method: "update", ID: "salad", Quantity: 1, Note: "no olives"},
		}, f.api.callsOf("update"))
	})

	t.Run("remove before the quiet period sends no note", func(t *testing.T) {
		f := newFixture(t, newFakeAPI(pizza(1, "")))
		f.load(t)

		require.NoError(t, f.cache.SetNote(ctx, "pizza", "no onions"))
		require.NoError(t, f.cache.Remove(ctx, "pizza"))
		f.timers.fireAll()

		assert.Empty(t, f.api.callsOf("update"))
		assert.Equal(t, []call{{Method: "delete", ID: "pizza"}}, f.api.callsOf("delete"))
		assert.Equal(t, 2, f.events.count())
	})

	t.Run("failed write rolls back and reports", func(t *testing.T) {
		var (
			mu       sync.Mutex
			reported []*cart.MutationError
		)
		api := newFakeAPI(pizza(1, "original"))
		f := newFixture(t, api, cart.WithFailureHandler(func(ctx context.Context, err *cart.MutationError) {
			mu.Lock()
			defer mu.Unlock()
			reported = append(reported, err)
		}))
		f.load(t)
		api.failNext("update", serverError())

		require.NoError(t, f.cache.SetNote(ctx, "pizza", "changed"))
		f.timers.fireAll()

		assert.Equal(t, cart.Snapshot{pizza(1, "original")}, f.cache.Snapshot())
		assert.Equal(t, 2, f.events.count())
		require.Len(t, reported, 1)
		assert.Equal(t, cart.OpSetNote, reported[0].Op)
		assert.Equal(t, "pizza", reported[0].ItemID)
	})

	t.Run("stopped timer that still fires is ignored", func(t *testing.T) {
		f := newFixture(t, newFakeAPI(pizza(1, "")))
		f.load(t)

		require.NoError(t, f.cache.SetNote(ctx, "pizza", "late"))
		stale := f.timers.active()[0]

		f.load(t)
		assert.Empty(t, f.cache.PendingNotes())

		stale.fn()
		assert.Empty(t, f.api.callsOf("update"))
	})
}

func TestCache_Remove(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, newFakeAPI(pizza(1, ""), salad(2, "")))
	f.load(t)
	f.api.failNext("delete", &apiclient.Failure{Status: 0, Message: apiclient.ConnectivityMessage})

	err := f.cache.Remove(ctx, "salad")
	var merr *cart.MutationError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, apiclient.NoticeConnectivity, merr.Notice())
	assert.Equal(t, f.api.server(), f.cache.Snapshot())
	assert.Equal(t, 1, f.events.count())

	require.NoError(t, f.cache.Remove(ctx, "salad"))
	assert.Equal(t, cart.Snapshot{pizza(1, "")}, f.cache.Snapshot())
	assert.Equal(t, 2, f.events.count())
}

func TestCache_Clear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("empties and cancels notes", func(t *testing.T) {
		f := newFixture(t, newFakeAPI(pizza(1, ""), salad(2, "")))
		f.load(t)
		require.NoError(t, f.cache.SetNote(ctx, "pizza", "x"))
		require.NoError(t, f.cache.SetNote(ctx, "salad", "y"))

		require.NoError(t, f.cache.Clear(ctx))
		f.timers.fireAll()

		assert.Empty(t, f.cache.Snapshot())
		assert.Empty(t, f.api.server())
		assert.Empty(t, f.api.callsOf("update"))
		assert.Len(t, f.api.callsOf("delete_all"), 1)
		assert.Equal(t, 3, f.events.count())
	})

	t.Run("failure reloads", func(t *testing.T) {
		f := newFixture(t, newFakeAPI(pizza(1, "")))
		f.load(t)
		f.api.failNext("delete_all", serverError())

		require.Error(t, f.cache.Clear(ctx))
		assert.Equal(t, cart.Snapshot{pizza(1, "")}, f.cache.Snapshot())
	})
}

func TestCache_RevertsWhenReloadFails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("set quantity", func(t *testing.T) {
		f := newFixture(t, newFakeAPI(pizza(1, ""), salad(2, "")))
		f.load(t)
		f.api.failNext("update", serverError())
		f.api.failNext("fetch", serverError())

		var merr *cart.MutationError
		require.ErrorAs(t, f.cache.SetQuantity(ctx, "pizza", 7), &merr)
		assert.Equal(t, cart.OpSetQuantity, merr.Op)
		assert.Equal(t, f.api.server(), f.cache.Snapshot())
		assert.Equal(t, 1, f.events.count())
	})

	t.Run("set quantity keeps the folded note pending", func(t *testing.T) {
		f := newFixture(t, newFakeAPI(pizza(1, "")))
		f.load(t)
		require.NoError(t, f.cache.SetNote(ctx, "pizza", "well done"))
		f.api.failNext("update", serverError())
		f.api.failNext("fetch", serverError())

		require.Error(t, f.cache.SetQuantity(ctx, "pizza", 4))
		assert.Equal(t, cart.Snapshot{pizza(1, "well done")}, f.cache.Snapshot())
		assert.Equal(t, []string{"pizza"}, f.cache.PendingNotes())

		f.timers.fireAll()
		assert.Equal(t, cart.Snapshot{pizza(1, "well done")}, f.api.server())
	})

	t.Run("remove", func(t *testing.T) {
		f := newFixture(t, newFakeAPI(pizza(1, ""), salad(2, "")))
		f.load(t)
		f.api.failNext("delete", serverError())
		f.api.failNext("fetch", serverError())

		require.Error(t, f.cache.Remove(ctx, "pizza"))
		assert.Equal(t, f.api.server(), f.cache.Snapshot())
		assert.Equal(t, 3, f.cache.Count())
	})

	t.Run("clear", func(t *testing.T) {
		f := newFixture(t, newFakeAPI(pizza(1, ""), salad(2, "")))
		f.load(t)
		f.api.failNext("delete_all", serverError())
		f.api.failNext("fetch", serverError())

		require.Error(t, f.cache.Clear(ctx))
		assert.Equal(t, f.api.server(), f.cache.Snapshot())
	})
}

func TestCache_Flush(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, newFakeAPI(pizza(1, ""), salad(1, "")))
	f.load(t)

	require.NoError(t, f.cache.SetNote(ctx, "salad", "dressing aside"))
	require.NoError(t, f.cache.SetNote(ctx, "pizza", "cut in 8"))
	require.NoError(t, f.cache.Flush(ctx))

	assert.Equal(t, []call{
		{Method: "update", ID: "pizza", Quantity: 1, Note: "cut in 8"},
		{Method: "update", ID: "salad", Quantity: 1, Note: "dressing aside"},
	}, f.api.callsOf("update"))
	assert.Empty(t, f.cache.PendingNotes())

	f.timers.fireAll()
	assert.Len(t, f.api.callsOf("update"), 2)
}

func TestCache_FlushFailureDropsRemaining(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, newFakeAPI(pizza(1, ""), salad(1, "")))
	f.load(t)
	f.api.failNext("update", serverError())

	require.NoError(t, f.cache.SetNote(ctx, "pizza", "one"))
	require.NoError(t, f.cache.SetNote(ctx, "salad", "two"))

	err := f.cache.Flush(ctx)
	var merr *cart.MutationError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, "pizza", merr.ItemID)

	assert.Len(t, f.api.callsOf("update"), 1)
	assert.Equal(t, f.api.server(), f.cache.Snapshot())
}

func TestCache_Reset(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, newFakeAPI(pizza(2, ""), salad(1, "")))
	f.load(t)
	require.NoError(t, f.cache.SetNote(ctx, "pizza", "unsent"))

	f.cache.Reset(ctx)
	f.timers.fireAll()

	assert.Empty(t, f.cache.Snapshot())
	assert.Zero(t, f.cache.Count())
	assert.Empty(t, f.api.callsOf("update"))
	assert.Len(t, f.api.server(), 2)
	assert.Equal(t, 2, f.events.count())
}

func TestCache_Close(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, newFakeAPI(pizza(1, "")))
	f.load(t)
	require.NoError(t, f.cache.SetNote(ctx, "pizza", "pending"))

	require.NoError(t, f.cache.Close())
	require.NoError(t, f.cache.Close())
	assert.Empty(t, f.timers.active())

	assert.ErrorIs(t, f.cache.SetNote(ctx, "pizza", "x"), cart.ErrClosed)
	assert.ErrorIs(t, f.cache.SetQuantity(ctx, "pizza", 2), cart.ErrClosed)
	assert.ErrorIs(t, f.cache.Remove(ctx, "pizza"), cart.ErrClosed)
	assert.ErrorIs(t, f.cache.Clear(ctx), cart.ErrClosed)
	assert.ErrorIs(t, f.cache.Add(ctx, "pizza", 1), cart.ErrClosed)
	assert.Empty(t, f.api.callsOf("update"))
}

func TestCache_CheckoutScenario(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, newFakeAPI())
	f.load(t)

	badge := 0
	f.bus.Subscribe(broadcast.TopicCartChanged, func(context.Context, broadcast.Topic) { badge = f.cache.Count() })

	require.NoError(t, f.cache.Add(ctx, "pizza", 1))
	assert.Equal(t, 1, f.events.count())
	assert.Equal(t, 1, badge)

	require.NoError(t, f.cache.SetQuantity(ctx, "pizza", 3))
	assert.Equal(t, 2, f.events.count())
	assert.Equal(t, 3, badge)

	assert.True(t, decimal.RequireFromString("28.50").Equal(f.cache.Subtotal()))
}

// Any sequence of mutations the server accepts must leave the cache equal
// to a fresh load.
func TestCache_SuccessfulSequencesConverge(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ids := []string{"pizza", "salad", "soda"}

	for seed := range uint64(25) {
		rng := rand.New(rand.NewPCG(seed, seed+1))
		f := newFixture(t, newFakeAPI())
		f.load(t)

		calls := 0
		for range 30 {
			id := ids[rng.IntN(len(ids))]
			_, inCart := f.cache.Snapshot().Find(id)
			var err error
			switch op := rng.IntN(5); {
			case op == 0 || !inCart:
				err = f.cache.Add(ctx, id, 1+rng.IntN(3))
			case op == 1:
				err = f.cache.SetQuantity(ctx, id, rng.IntN(4))
			case op == 2:
				err = f.cache.SetNote(ctx, id, strings.Repeat("x", rng.IntN(5)))
			case op == 3:
				err = f.cache.Remove(ctx, id)
			default:
				f.timers.fireAll()
				continue
			}
			require.NoError(t, err)
			calls++
			assertUniqueIDs(t, f.cache.Snapshot())
		}
		require.NoError(t, f.cache.Flush(ctx))

		assert.Equal(t, calls, f.events.count(), "seed %d", seed)
		assert.Equal(t, f.api.server(), f.cache.Snapshot(), "seed %d", seed)

		fresh, err := f.cache.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, fresh, f.cache.Snapshot(), "seed %d", seed)
	}
}

func TestCache_ConcurrentMutations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, newFakeAPI(pizza(1, ""), salad(1, "")))
	f.load(t)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := "pizza"
			if i%2 == 0 {
				id = "salad"
			}
			_ = f.cache.SetQuantity(ctx, id, 1+i%4)
			_ = f.cache.SetNote(ctx, id, "n")
			_ = f.cache.Snapshot()
		}()
	}
	wg.Wait()
	require.NoError(t, f.cache.Flush(ctx))

	assertUniqueIDs(t, f.cache.Snapshot())
	assert.Equal(t, 40, f.events.count())
}

func TestCache_Metrics(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reg := prometheus.NewRegistry()
	f := newFixture(t, newFakeAPI(pizza(1, "")), cart.WithMetrics(reg))
	f.load(t)

	// A second cache on the same registry shares the counters.
	_ = newFixture(t, newFakeAPI(), cart.WithMetrics(reg))

	require.NoError(t, f.cache.SetQuantity(ctx, "pizza", 2))
	f.api.failNext("update", serverError())
	require.Error(t, f.cache.SetQuantity(ctx, "pizza", 3))

	expected := `
# HELP storefront_cart_resyncs_total Full cart reloads that replaced the local snapshot.
# TYPE storefront_cart_resyncs_total counter
storefront_cart_resyncs_total 2
# HELP storefront_cart_writes_total Cart write-through calls by operation and outcome.
# TYPE storefront_cart_writes_total counter
storefront_cart_writes_total{op="set_quantity",outcome="failed"} 1
storefront_cart_writes_total{op="set_quantity",outcome="ok"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"storefront_cart_resyncs_total", "storefront_cart_writes_total"))
}

func TestMutationError(t *testing.T) {
	t.Parallel()

	cause := serverError()
	err := &cart.MutationError{Op: cart.OpRemove, ItemID: "pizza", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "remove pizza")
	assert.Equal(t, "We couldn't remove that item. Your cart has been refreshed.", err.Notice())

	forbidden := &cart.MutationError{Op: cart.OpSetNote, Err: &apiclient.Failure{Status: http.StatusForbidden}}
	assert.Equal(t, apiclient.NoticeForbidden, forbidden.Notice())
	assert.Equal(t, "cart: set_note: "+forbidden.Err.Error(), forbidden.Error())

	plain := &cart.MutationError{Op: cart.OpClear, Err: errors.New("weird")}
	assert.Equal(t, "We couldn't empty your cart. Your cart has been refreshed.", plain.Notice())
}

func assertUniqueIDs(t *testing.T, snap cart.Snapshot) {
	t.Helper()
	seen := make(map[string]bool, len(snap))
	for _, it := range snap {
		require.False(t, seen[it.ID], "duplicate id %s", it.ID)
		seen[it.ID] = true
	}
}

func must[T any](v T, ok bool) T {
	if !ok {
		panic("missing value")
	}
	return v
}
