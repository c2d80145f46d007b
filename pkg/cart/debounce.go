package cart

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/dmitrymomot/storefront/pkg/broadcast"
	"github.com/dmitrymomot/storefront/pkg/logger"
)

// pendingNote is a scheduled note write. It is only acted on while it is
// still the map entry for its item and its epoch matches the cache's.
type pendingNote struct {
	timer Timer
	epoch uint64
}

// scheduleNoteLocked (re)starts the quiet period for id.
func (c *Cache) scheduleNoteLocked(id string) {
	if prev, ok := c.pending[id]; ok {
		prev.timer.Stop()
	}
	p := &pendingNote{epoch: c.epoch}
	c.pending[id] = p
	p.timer = c.afterFunc(c.noteDelay, func() { c.fireNote(id, p) })
}

func (c *Cache) cancelNoteLocked(id string) {
	if p, ok := c.pending[id]; ok {
		p.timer.Stop()
		delete(c.pending, id)
	}
}

func (c *Cache) cancelAllNotesLocked() {
	for id, p := range c.pending {
		p.timer.Stop()
		delete(c.pending, id)
	}
}

// PendingNotes returns the ids with a note write waiting for its quiet
// period, sorted.
func (c *Cache) PendingNotes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := c.pendingIDsLocked()
	slices.Sort(ids)
	return ids
}

// Flush writes every pending note now instead of waiting for its timer.
// Failures are joined; the first one triggers a reload, which drops the
// remaining writes.
func (c *Cache) Flush(ctx context.Context) error {
	type due struct {
		id    string
		epoch uint64
	}

	c.mu.Lock()
	list := make([]due, 0, len(c.pending))
	for id, p := range c.pending {
		p.timer.Stop()
		list = append(list, due{id: id, epoch: p.epoch})
	}
	clear(c.pending)
	c.mu.Unlock()

	slices.SortFunc(list, func(a, b due) int { return strings.Compare(a.id, b.id) })

	var errs []error
	for _, d := range list {
		if err := c.writeNote(ctx, d.id, d.epoch); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// fireNote runs when the quiet period for id has elapsed.
func (c *Cache) fireNote(id string, p *pendingNote) {
	c.mu.Lock()
	if c.pending[id] != p {
		c.mu.Unlock()
		return
	}
	delete(c.pending, id)
	ctx := c.ctx
	c.mu.Unlock()

	if err := c.writeNote(ctx, id, p.epoch); err != nil {
		c.reportAsync(ctx, err)
	}
}

// writeNote sends the item's current quantity and note. Writes scheduled
// before the latest reload are dropped: that reload already replaced the
// edit they carried.
func (c *Cache) writeNote(ctx context.Context, id string, epoch uint64) error {
	c.mu.Lock()
	if c.closed || epoch != c.epoch {
		c.mu.Unlock()
		c.metrics.write(OpSetNote, outcomeDropped)
		c.logger.DebugContext(ctx, "dropping stale note write",
			logger.Component("cart"),
			logger.ItemID(id),
		)
		return nil
	}
	item, ok := c.items.Find(id)
	c.mu.Unlock()
	if !ok {
		return nil
	}

	if err := c.api.Update(ctx, id, item.Quantity, item.Note); err != nil {
		merr := c.rollback(ctx, OpSetNote, id, err, nil)
		c.bus.Publish(ctx, broadcast.TopicCartChanged)
		return merr
	}
	c.metrics.write(OpSetNote, outcomeOK)
	return nil
}
