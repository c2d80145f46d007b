package observer_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/pkg/broadcast"
	"github.com/dmitrymomot/storefront/pkg/observer"
	"github.com/dmitrymomot/storefront/pkg/session"
)

type counter struct{ n atomic.Int32 }

func (c *counter) Count() int { return int(c.n.Load()) }

type reader struct{ sess atomic.Pointer[session.Session] }

func (r *reader) Current(context.Context) (*session.Session, bool) {
	s := r.sess.Load()
	return s.Clone(), s != nil
}

func TestBadge(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	bus := broadcast.NewBus()
	c := &counter{}
	c.n.Store(2)

	var seen []int
	badge := observer.NewBadge(bus, c, func(n int) { seen = append(seen, n) })
	assert.Equal(t, 2, badge.Count())

	c.n.Store(5)
	assert.Equal(t, 2, badge.Count(), "no publish, no re-read")

	bus.Publish(ctx, broadcast.TopicCartChanged)
	assert.Equal(t, 5, badge.Count())

	bus.Publish(ctx, broadcast.TopicAuthChanged)
	assert.Equal(t, []int{5}, seen)

	badge.Close()
	badge.Close()
	c.n.Store(9)
	bus.Publish(ctx, broadcast.TopicCartChanged)
	assert.Equal(t, 5, badge.Count())
}

func TestAuthIndicator(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	bus := broadcast.NewBus()
	r := &reader{}

	var changes atomic.Int32
	ind := observer.NewAuthIndicator(ctx, bus, r, func(*session.Session) { changes.Add(1) })
	assert.False(t, ind.SignedIn())
	assert.Nil(t, ind.Session())

	r.sess.Store(&session.Session{UserID: "u1", Roles: []string{"customer"}})
	bus.Publish(ctx, broadcast.TopicAuthChanged)
	require.True(t, ind.SignedIn())
	assert.Equal(t, "u1", ind.Session().UserID)

	r.sess.Store(nil)
	bus.Publish(ctx, broadcast.TopicAuthChanged)
	assert.False(t, ind.SignedIn())
	assert.Equal(t, int32(2), changes.Load())

	ind.Close()
	require.NoError(t, bus.Close())
	ind.Close()
}
