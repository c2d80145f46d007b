package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dmitrymomot/storefront/pkg/logger"
)

// Topic names a state-change notification. Topics carry no payload:
// observers re-read the state they care about.
type Topic string

const (
	// TopicAuthChanged fires after login, logout or a session change made by
	// another browsing context.
	TopicAuthChanged Topic = "auth-changed"

	// TopicCartChanged fires after every cart mutation.
	TopicCartChanged Topic = "cart-changed"
)

// Handler reacts to a published topic.
type Handler func(ctx context.Context, topic Topic)

// Unsubscribe removes a handler. Safe to call many times, and after the bus
// has been closed.
type Unsubscribe func()

// Publisher publishes topics.
type Publisher interface {
	Publish(ctx context.Context, topic Topic)
}

// Subscribable registers topic handlers.
type Subscribable interface {
	Subscribe(topic Topic, h Handler) Unsubscribe
}

type registration struct {
	handler Handler
	removed atomic.Bool
}

// Bus is the same-context topic broadcaster. Publish invokes every handler
// registered for the topic synchronously, in subscription order, before it
// returns. Handlers may publish or subscribe themselves.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Topic][]*registration
	closed   bool
	logger   *slog.Logger
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithBusLogger sets the logger used to report panicking handlers.
func WithBusLogger(l *slog.Logger) BusOption {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBus creates an empty Bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		handlers: make(map[Topic][]*registration),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers h for topic. A nil handler or a closed bus yields a
// no-op Unsubscribe.
func (b *Bus) Subscribe(topic Topic, h Handler) Unsubscribe {
	if h == nil {
		return func() {}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}
	}

	reg := &registration{handler: h}
	b.handlers[topic] = append(b.handlers[topic], reg)

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(topic, reg) })
	}
}

// Publish calls every handler subscribed to topic. A handler that panics is
// logged and skipped; the rest still run.
func (b *Bus) Publish(ctx context.Context, topic Topic) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	regs := make([]*registration, len(b.handlers[topic]))
	copy(regs, b.handlers[topic])
	b.mu.RUnlock()

	for _, reg := range regs {
		if reg.removed.Load() {
			continue
		}
		b.invoke(ctx, topic, reg.handler)
	}
}

// SubscriberCount returns the number of handlers registered for topic.
func (b *Bus) SubscriberCount(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[topic])
}

// Close drops all handlers. Later publishes are no-ops. Idempotent.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for _, regs := range b.handlers {
		for _, reg := range regs {
			reg.removed.Store(true)
		}
	}
	clear(b.handlers)
	return nil
}

func (b *Bus) invoke(ctx context.Context, topic Topic, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.ErrorContext(ctx, "topic handler panicked",
				logger.Component("broadcast"),
				logger.Topic(string(topic)),
				logger.Error(fmt.Errorf("panic: %v", r)),
			)
		}
	}()
	h(ctx, topic)
}

func (b *Bus) remove(topic Topic, reg *registration) {
	reg.removed.Store(true)

	b.mu.Lock()
	defer b.mu.Unlock()

	regs := b.handlers[topic]
	for i, r := range regs {
		if r == reg {
			b.handlers[topic] = append(regs[:i:i], regs[i+1:]...)
			break
		}
	}
	if len(b.handlers[topic]) == 0 {
		delete(b.handlers, topic)
	}
}
