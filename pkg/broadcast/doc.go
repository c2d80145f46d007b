// Package broadcast lets decoupled storefront surfaces agree on shared state
// without a central store.
//
// Two channels feed one topic space:
//
//   - Bus is the same-context channel. Publish runs every handler subscribed
//     to the topic synchronously, so a surface that subscribed before the
//     publish has reacted by the time Publish returns.
//   - Bridge is the cross-context channel. It consumes StorageEvent values
//     emitted when another browsing context mutates durable storage, filters
//     them by key and republishes the routed topic on the Bus.
//
// Observers only ever see topics (TopicAuthChanged, TopicCartChanged) and
// never need to know which channel delivered them.
//
//	bus := broadcast.NewBus()
//	unsubscribe := bus.Subscribe(broadcast.TopicCartChanged, func(ctx context.Context, _ broadcast.Topic) {
//		badge.Refresh(ctx)
//	})
//	defer unsubscribe()
//
// MemoryBroadcaster is the generic channel fan-out used by storage backends
// to deliver StorageEvent values to every other context in the process.
package broadcast
