package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/storefront/pkg/broadcast"
	"github.com/dmitrymomot/storefront/pkg/logger"
)

// DefaultRedisPrefix namespaces storefront keys and the change channel.
const DefaultRedisPrefix = "storefront:"

// RedisStorage keeps durable state in Redis and announces every write on a
// pub/sub channel, which is how contexts in other processes learn about it.
type RedisStorage struct {
	client  redis.UniversalClient
	prefix  string
	channel string
	origin  string
	logger  *slog.Logger
}

// RedisOption configures a RedisStorage.
type RedisOption func(*RedisStorage)

// WithRedisPrefix sets the key prefix. The change channel is derived from it.
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStorage) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithRedisLogger sets the logger used for undecodable change messages.
func WithRedisLogger(l *slog.Logger) RedisOption {
	return func(s *RedisStorage) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewRedisStorage creates a RedisStorage. The client is owned by the caller.
func NewRedisStorage(client redis.UniversalClient, opts ...RedisOption) *RedisStorage {
	s := &RedisStorage{
		client: client,
		prefix: DefaultRedisPrefix,
		origin: uuid.NewString(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.channel = s.prefix + "changes"
	return s
}

func (s *RedisStorage) Origin() string { return s.origin }

func (s *RedisStorage) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("storage: redis get: %w", err)
	}
	return v, nil
}

// Set writes the value and announces the change in one MULTI/EXEC, so a
// value is never stored without other contexts hearing about it.
func (s *RedisStorage) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	payload, err := encodeChange(Change{Key: key, Origin: s.origin})
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.prefix+key, value, 0)
		p.Publish(ctx, s.channel, payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("storage: redis set: %w", err)
	}
	return nil
}

// deleteScript removes KEYS[1] and, only if it existed, publishes ARGV[2] on
// channel ARGV[1].
var deleteScript = redis.NewScript(`
if redis.call("DEL", KEYS[1]) == 1 then
	redis.call("PUBLISH", ARGV[1], ARGV[2])
	return 1
end
return 0
`)

// Delete removes each key together with its change announcement. Missing
// keys are skipped without an announcement.
func (s *RedisStorage) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		payload, err := encodeChange(Change{Key: k, Deleted: true, Origin: s.origin})
		if err != nil {
			return err
		}
		if err := deleteScript.Run(ctx, s.client, []string{s.prefix + k}, s.channel, payload).Err(); err != nil {
			return fmt.Errorf("storage: redis del: %w", err)
		}
	}
	return nil
}

func (s *RedisStorage) Watch(ctx context.Context) broadcast.Subscriber[Change] {
	pubsub := s.client.Subscribe(ctx, s.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		s.logger.ErrorContext(ctx, "storage: redis subscribe failed",
			logger.Component("storage"),
			logger.Error(err),
		)
		_ = pubsub.Close()
		return broadcast.ClosedSubscriber[Change]()
	}

	ctx, cancel := context.WithCancel(ctx)
	relay := broadcast.NewMemoryBroadcaster[Change](watchBuffer)
	inner := relay.Subscribe(ctx)

	go func() {
		defer func() {
			_ = pubsub.Close()
			_ = relay.Close()
		}()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var change Change
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					s.logger.WarnContext(ctx, "storage: undecodable change message",
						logger.Component("storage"),
						logger.Error(err),
					)
					continue
				}
				_ = relay.Broadcast(ctx, broadcast.Message[Change]{Data: change})
			}
		}
	}()

	return closeHook{Subscriber: filterOrigin(ctx, inner, s.origin), hook: cancel}
}

// closeHook runs hook after closing the wrapped subscriber.
type closeHook struct {
	broadcast.Subscriber[Change]
	hook func()
}

func (c closeHook) Close() error {
	err := c.Subscriber.Close()
	c.hook()
	return err
}

func encodeChange(change Change) (string, error) {
	payload, err := json.Marshal(change)
	if err != nil {
		return "", fmt.Errorf("storage: encode change: %w", err)
	}
	return string(payload), nil
}
