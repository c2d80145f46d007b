package broadcast

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/storefront/pkg/logger"
)

// StorageEvent reports a durable storage mutation made by another browsing
// context. It carries no value: observers re-read storage themselves.
type StorageEvent struct {
	Key     string `json:"key"`
	Deleted bool   `json:"deleted,omitempty"`
	Origin  string `json:"origin"`
}

// Bridge forwards cross-context storage events onto bus, publishing the topic
// routed for the event key. Keys missing from routes are ignored, so
// unrelated storage writes do not wake observers.
//
// The returned stop function closes the subscription and waits for the
// forwarding goroutine to exit. It is safe to call more than once.
func Bridge(ctx context.Context, bus Publisher, events Subscriber[StorageEvent], routes map[string]Topic, log *slog.Logger) (stop func()) {
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(ctx)

	table := make(map[string]Topic, len(routes))
	for k, t := range routes {
		table[k] = t
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		ch := events.Receive(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				topic, routed := table[msg.Data.Key]
				if !routed {
					continue
				}
				log.DebugContext(ctx, "cross-context storage change",
					logger.Component("broadcast"),
					logger.StorageKey(msg.Data.Key),
					logger.Origin(msg.Data.Origin),
					logger.Topic(string(topic)),
				)
				bus.Publish(ctx, topic)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			_ = events.Close()
			<-done
		})
	}
}
