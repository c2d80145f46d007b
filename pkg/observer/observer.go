package observer

import (
	"context"
	"sync"

	"github.com/dmitrymomot/storefront/pkg/broadcast"
	"github.com/dmitrymomot/storefront/pkg/session"
)

// Counter reports the number of items in the cart.
type Counter interface {
	Count() int
}

// SessionReader reports the signed-in session.
type SessionReader interface {
	Current(ctx context.Context) (*session.Session, bool)
}

// Badge is the navigation item-count surface. It holds no cart state of its
// own: on every cart-changed publish it re-reads the count.
type Badge struct {
	counter  Counter
	onChange func(count int)

	mu          sync.RWMutex
	count       int
	unsubscribe broadcast.Unsubscribe
}

// NewBadge subscribes a badge to cart-changed on bus and reads the initial
// count. onChange may be nil.
func NewBadge(bus broadcast.Subscribable, counter Counter, onChange func(count int)) *Badge {
	b := &Badge{counter: counter, onChange: onChange, count: counter.Count()}
	b.unsubscribe = bus.Subscribe(broadcast.TopicCartChanged, b.refresh)
	return b
}

// Count returns the last count read.
func (b *Badge) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Close unsubscribes the badge.
func (b *Badge) Close() { b.unsubscribe() }

func (b *Badge) refresh(ctx context.Context, _ broadcast.Topic) {
	n := b.counter.Count()
	b.mu.Lock()
	b.count = n
	b.mu.Unlock()
	if b.onChange != nil {
		b.onChange(n)
	}
}

// AuthIndicator is the "signed in as" surface. It re-reads the session on
// every auth-changed publish.
type AuthIndicator struct {
	reader   SessionReader
	onChange func(sess *session.Session)

	mu          sync.RWMutex
	current     *session.Session
	unsubscribe broadcast.Unsubscribe
}

// NewAuthIndicator subscribes an indicator to auth-changed on bus.
// onChange receives nil after a logout and may itself be nil.
func NewAuthIndicator(ctx context.Context, bus broadcast.Subscribable, reader SessionReader, onChange func(sess *session.Session)) *AuthIndicator {
	a := &AuthIndicator{reader: reader, onChange: onChange}
	a.current, _ = reader.Current(ctx)
	a.unsubscribe = bus.Subscribe(broadcast.TopicAuthChanged, a.refresh)
	return a
}

// Session returns the last session read, or nil when signed out.
func (a *AuthIndicator) Session() *session.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.current.Clone()
}

// SignedIn reports whether the last read found a session.
func (a *AuthIndicator) SignedIn() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.current != nil
}

// Close unsubscribes the indicator.
func (a *AuthIndicator) Close() { a.unsubscribe() }

func (a *AuthIndicator) refresh(ctx context.Context, _ broadcast.Topic) {
	sess, _ := a.reader.Current(ctx)
	a.mu.Lock()
	a.current = sess
	a.mu.Unlock()
	if a.onChange != nil {
		a.onChange(sess.Clone())
	}
}
