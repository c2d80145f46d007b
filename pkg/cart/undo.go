package cart

// undo reverts one optimistic mutation. It only applies while no reload has
// landed since the mutation: a reload installs server state, which wins.
type undo struct {
	epoch uint64
	apply func(Snapshot) Snapshot
	// notes had a pending write when the mutation cancelled it.
	notes []string
}

func (c *Cache) undoLocked(apply func(Snapshot) Snapshot, ids ...string) *undo {
	u := &undo{epoch: c.epoch, apply: apply}
	for _, id := range ids {
		if _, ok := c.pending[id]; ok {
			u.notes = append(u.notes, id)
		}
	}
	return u
}

func (c *Cache) pendingIDsLocked() []string {
	ids := make([]string, 0, len(c.pending))
	for id := range c.pending {
		ids = append(ids, id)
	}
	return ids
}

// revert applies u and reschedules the note writes it cancelled. It reports
// whether the snapshot was reverted.
func (c *Cache) revert(u *undo) bool {
	if u == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.epoch != u.epoch {
		return false
	}
	c.items = u.apply(c.items)
	for _, id := range u.notes {
		if c.items.Index(id) >= 0 {
			c.scheduleNoteLocked(id)
		}
	}
	return true
}
