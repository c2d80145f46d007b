package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrymomot/storefront/pkg/broadcast"
)

var (
	// ErrNotFound is returned by Get for a missing key.
	ErrNotFound = errors.New("storage.not_found")

	// ErrEmptyKey is returned for empty keys.
	ErrEmptyKey = errors.New("storage.empty_key")

	// ErrClosed is returned after the backend has been closed.
	ErrClosed = errors.New("storage.closed")
)

// Change describes a mutation made by another browsing context.
type Change = broadcast.StorageEvent

// Storage is the durable key/value store of one browsing context. Values are
// opaque strings; callers serialize what they keep.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error

	// Delete removes keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Watch delivers changes made by other contexts sharing the same
	// durable state. Changes made through this Storage are not delivered.
	Watch(ctx context.Context) broadcast.Subscriber[Change]

	// Origin identifies this context in emitted changes.
	Origin() string
}

// watchBuffer is the per-watcher queue size.
const watchBuffer = 64

// originFilter forwards messages from inner, skipping those emitted by origin.
// It keeps reading inner while the consumer is busy: changes that cannot be
// handed over yet are held one per key, the latest winning, since a change
// only tells the consumer which key to re-read.
type originFilter struct {
	inner  broadcast.Subscriber[Change]
	ch     chan broadcast.Message[Change]
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func filterOrigin(ctx context.Context, inner broadcast.Subscriber[Change], origin string) broadcast.Subscriber[Change] {
	ctx, cancel := context.WithCancel(ctx)
	f := &originFilter{
		inner:  inner,
		ch:     make(chan broadcast.Message[Change], watchBuffer),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(f.done)
		defer close(f.ch)

		var q keyQueue
		src := inner.Receive(ctx)
		for src != nil || q.len() > 0 {
			var out chan<- broadcast.Message[Change]
			var next broadcast.Message[Change]
			if q.len() > 0 {
				out = f.ch
				next = broadcast.Message[Change]{Data: q.peek()}
			}

			select {
			case <-ctx.Done():
				return
			case msg, ok := <-src:
				if !ok {
					src = nil
					continue
				}
				if msg.Data.Origin != origin {
					q.push(msg.Data)
				}
			case out <- next:
				q.pop()
			}
		}
	}()

	return f
}

// keyQueue is a FIFO of changes holding at most one entry per key. A repeated
// key keeps its place and takes the newer change.
type keyQueue struct {
	order []string
	byKey map[string]Change
}

func (q *keyQueue) len() int { return len(q.order) }

func (q *keyQueue) push(c Change) {
	if q.byKey == nil {
		q.byKey = make(map[string]Change)
	}
	if _, ok := q.byKey[c.Key]; !ok {
		q.order = append(q.order, c.Key)
	}
	q.byKey[c.Key] = c
}

func (q *keyQueue) peek() Change { return q.byKey[q.order[0]] }

func (q *keyQueue) pop() {
	delete(q.byKey, q.order[0])
	q.order = q.order[1:]
}

func (f *originFilter) Receive(ctx context.Context) <-chan broadcast.Message[Change] {
	return f.ch
}

func (f *originFilter) Close() error {
	f.once.Do(func() {
		f.cancel()
		_ = f.inner.Close()
		<-f.done
	})
	return nil
}
