package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/storefront/pkg/apiclient"
	"github.com/dmitrymomot/storefront/pkg/broadcast"
	"github.com/dmitrymomot/storefront/pkg/logger"
)

// Cache is the in-memory cart of one browsing context. Mutations apply to
// the local snapshot first and are then written through to the server. When
// a write fails the local snapshot is discarded and reloaded in full; no
// merge is attempted. If that reload fails as well, the call reverts its own
// optimistic change.
//
// Every mutating call publishes exactly one cart-changed topic. SetNote
// publishes at edit time; if its debounced write later fails, the reload
// publishes once more.
type Cache struct {
	api    API
	bus    broadcast.Publisher
	logger *slog.Logger

	noteDelay time.Duration
	afterFunc AfterFunc
	retries   int
	backoff   apiclient.BackoffStrategy
	metrics   *metrics
	onFailure FailureHandler

	// ctx bounds debounced writes; cancelled by Close.
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	items   Snapshot
	epoch   uint64
	pending map[string]*pendingNote
	closed  bool

	reloads singleflight.Group
}

// New creates an empty Cache. Call Load to fetch the server cart.
func New(api API, bus broadcast.Publisher, opts ...Option) (*Cache, error) {
	if api == nil || bus == nil {
		return nil, ErrNilDependency
	}
	c := &Cache{
		api:       api,
		bus:       bus,
		logger:    slog.Default(),
		noteDelay: DefaultNoteDelay,
		afterFunc: RealAfterFunc,
		retries:   DefaultResyncRetries,
		backoff:   apiclient.DefaultBackoffStrategy(),
		items:     Snapshot{},
		pending:   make(map[string]*pendingNote),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = newMetrics(nil)
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	return c, nil
}

// Load replaces the snapshot with the server cart. It is the only call that
// swaps the whole snapshot on purpose; pending note writes are cancelled.
// Concurrent loads and rollbacks share one request. Load does not publish.
func (c *Cache) Load(ctx context.Context) (Snapshot, error) {
	snap, err := c.resync(ctx)
	if err != nil {
		return nil, &MutationError{Op: OpLoad, Err: err}
	}
	return snap, nil
}

// Snapshot returns a copy of the current items.
func (c *Cache) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.Clone()
}

// Add writes the item to the server and then reloads, since the server owns
// names and prices.
func (c *Cache) Add(ctx context.Context, id string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if err := c.checkOpen(); err != nil {
		return err
	}

	if err := c.api.Add(ctx, id, quantity); err != nil {
		return c.settle(ctx, OpAdd, id, err, nil)
	}
	c.metrics.write(OpAdd, outcomeOK)

	_, err := c.resync(ctx)
	c.bus.Publish(ctx, broadcast.TopicCartChanged)
	if err != nil {
		return &MutationError{Op: OpAdd, ItemID: id, Err: err}
	}
	return nil
}

// SetQuantity updates the line immediately and writes quantity and the
// current note through. A pending note write for the item is folded into
// this call. Quantities below 1 remove the line.
func (c *Cache) SetQuantity(ctx context.Context, id string, quantity int) error {
	if quantity < 1 {
		return c.Remove(ctx, id)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	i := c.items.Index(id)
	if i < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	prev := c.items[i]
	u := c.undoLocked(func(s Snapshot) Snapshot {
		if j := s.Index(id); j >= 0 {
			s[j] = prev
		}
		return s
	}, id)
	c.items[i].Quantity = quantity
	note := c.items[i].Note
	c.cancelNoteLocked(id)
	c.mu.Unlock()

	return c.settle(ctx, OpSetQuantity, id, c.api.Update(ctx, id, quantity, note), u)
}

// SetNote updates the note immediately and schedules its write after the
// quiet period. Each edit to the same item restarts the period.
func (c *Cache) SetNote(ctx context.Context, id, note string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	i := c.items.Index(id)
	if i < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	c.items[i].Note = note
	c.scheduleNoteLocked(id)
	c.mu.Unlock()

	c.bus.Publish(ctx, broadcast.TopicCartChanged)
	return nil
}

// Remove drops the line immediately and deletes it on the server. A pending
// note write for the item is cancelled.
func (c *Cache) Remove(ctx context.Context, id string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	i := c.items.Index(id)
	if i < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	prev := c.items[i]
	u := c.undoLocked(func(s Snapshot) Snapshot {
		if s.Index(id) >= 0 {
			return s
		}
		return slices.Insert(s, min(i, len(s)), prev)
	}, id)
	c.items = append(c.items[:i:i], c.items[i+1:]...)
	c.cancelNoteLocked(id)
	c.mu.Unlock()

	return c.settle(ctx, OpRemove, id, c.api.Delete(ctx, id), u)
}

// Clear empties the cart immediately and on the server. All pending note
// writes are cancelled.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	prev := c.items.Clone()
	u := c.undoLocked(func(s Snapshot) Snapshot {
		if len(s) > 0 {
			return s
		}
		return prev.Clone()
	}, c.pendingIDsLocked()...)
	c.items = Snapshot{}
	c.cancelAllNotesLocked()
	c.mu.Unlock()

	return c.settle(ctx, OpClear, "", c.api.DeleteAll(ctx), u)
}

// Reset empties the local snapshot without touching the server, for when the
// signed-in user goes away. Pending note writes are dropped.
func (c *Cache) Reset(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.items = Snapshot{}
	c.epoch++
	c.cancelAllNotesLocked()
	c.mu.Unlock()

	c.bus.Publish(ctx, broadcast.TopicCartChanged)
}

// Close stops pending note timers without writing them and cancels
// in-flight debounced writes. Use Flush first to keep pending edits.
func (c *Cache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.cancelAllNotesLocked()
	c.mu.Unlock()

	c.cancel()
	return nil
}

func (c *Cache) checkOpen() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return nil
}

// settle finishes a synchronous mutation: on failure it reloads the whole
// snapshot, then it publishes cart-changed once either way.
func (c *Cache) settle(ctx context.Context, op Op, id string, err error, u *undo) error {
	if err == nil {
		c.metrics.write(op, outcomeOK)
		c.bus.Publish(ctx, broadcast.TopicCartChanged)
		return nil
	}

	merr := c.rollback(ctx, op, id, err, u)
	c.bus.Publish(ctx, broadcast.TopicCartChanged)
	return merr
}

// rollback records a failed write and reloads the snapshot from the server.
// When the reload fails too, u reverts the optimistic change locally.
func (c *Cache) rollback(ctx context.Context, op Op, id string, err error, u *undo) *MutationError {
	c.metrics.write(op, outcomeFailed)
	c.logger.WarnContext(ctx, "cart write failed, reloading",
		logger.Component("cart"),
		logger.Operation(string(op)),
		logger.ItemID(id),
		logger.Status(apiclient.StatusOf(err)),
		logger.Error(err),
	)

	if _, rerr := c.resync(ctx); rerr != nil {
		c.logger.ErrorContext(ctx, "cart reload after failed write did not succeed",
			logger.Component("cart"),
			logger.Operation(string(op)),
			logger.Error(rerr),
		)
		if c.revert(u) {
			c.logger.InfoContext(ctx, "optimistic cart change reverted",
				logger.Component("cart"),
				logger.Operation(string(op)),
				logger.ItemID(id),
			)
		}
	}
	return &MutationError{Op: op, ItemID: id, Err: err}
}

// resync fetches the server cart and installs it. Concurrent callers share
// one fetch.
func (c *Cache) resync(ctx context.Context) (Snapshot, error) {
	v, err, _ := c.reloads.Do("cart", func() (any, error) {
		return c.reload(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(Snapshot).Clone(), nil
}

func (c *Cache) reload(ctx context.Context) (Snapshot, error) {
	var fetched []Item
	attempt := 0
	err := apiclient.Retry(ctx, c.retries, c.backoff, func(ctx context.Context) error {
		if attempt > 0 {
			c.logger.DebugContext(ctx, "retrying cart reload",
				logger.Component("cart"),
				logger.RetryCount(attempt),
			)
		}
		attempt++

		items, err := c.api.Fetch(ctx)
		if err != nil {
			return err
		}
		fetched = items
		return nil
	})
	if err != nil {
		return nil, err
	}

	snap, dropped := normalize(fetched)
	if dropped > 0 {
		c.logger.WarnContext(ctx, "server cart contained invalid lines",
			logger.Component("cart"),
			slog.Int("dropped", dropped),
		)
	}

	c.mu.Lock()
	c.items = snap.Clone()
	c.epoch++
	c.cancelAllNotesLocked()
	c.mu.Unlock()

	c.metrics.resync()
	return snap, nil
}

// reportAsync hands a failed debounced write to the failure handler.
func (c *Cache) reportAsync(ctx context.Context, err error) {
	var merr *MutationError
	if c.onFailure == nil || !errors.As(err, &merr) {
		return
	}
	c.onFailure(ctx, merr)
}
