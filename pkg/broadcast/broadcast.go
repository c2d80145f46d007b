package broadcast

import (
	"context"
	"sync"
)

// Message wraps data of type T for type-safe broadcasting.
type Message[T any] struct {
	Data T
}

// Subscriber receives messages from a Broadcaster.
// Implementations must be safe for concurrent use.
type Subscriber[T any] interface {
	// Receive returns the channel messages are delivered on. The channel is
	// closed once the subscriber is closed.
	Receive(ctx context.Context) <-chan Message[T]

	// Close releases the subscriber. Idempotent.
	Close() error
}

// Broadcaster sends messages to multiple channel subscribers.
type Broadcaster[T any] interface {
	// Subscribe registers a subscriber whose lifetime is bound to ctx.
	Subscribe(ctx context.Context) Subscriber[T]

	// Broadcast sends msg to every active subscriber without blocking.
	Broadcast(ctx context.Context, msg Message[T]) error

	// Close closes all subscribers. Later Subscribe calls return closed subscribers.
	Close() error
}

type subscriber[T any] struct {
	ch     chan Message[T]
	closed bool
	mu     sync.RWMutex
}

func newSubscriber[T any](bufferSize int) *subscriber[T] {
	return &subscriber[T]{
		ch: make(chan Message[T], bufferSize),
	}
}

// ClosedSubscriber returns a subscriber whose channel is already closed, for
// sources that never produce messages.
func ClosedSubscriber[T any]() Subscriber[T] {
	sub := newSubscriber[T](1)
	_ = sub.Close()
	return sub
}

func (s *subscriber[T]) Receive(ctx context.Context) <-chan Message[T] {
	return s.ch
}

func (s *subscriber[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		close(s.ch)
		s.closed = true
	}
	return nil
}

// send reports whether the subscriber is still open. A full buffer drops
// the message but keeps the subscriber.
func (s *subscriber[T]) send(msg Message[T]) (open, delivered bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, false
	}

	select {
	case s.ch <- msg:
		return true, true
	default:
		return true, false
	}
}
