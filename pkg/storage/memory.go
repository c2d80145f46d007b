package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/storefront/pkg/broadcast"
)

// MemoryBackend is process-wide durable state shared by any number of
// browsing contexts. Each Open call returns a Storage view with its own
// origin, so a write in one view is observed by the others' watchers.
type MemoryBackend struct {
	mu      sync.RWMutex
	data    map[string]string
	changes *broadcast.MemoryBroadcaster[Change]
	closed  bool
}

// NewMemoryBackend creates an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		data:    make(map[string]string),
		changes: broadcast.NewMemoryBroadcaster[Change](watchBuffer),
	}
}

// Open returns a new browsing-context view of the backend.
func (b *MemoryBackend) Open() *MemoryStorage {
	return &MemoryStorage{backend: b, origin: uuid.NewString()}
}

// Close stops change delivery and rejects further writes.
func (b *MemoryBackend) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	return b.changes.Close()
}

// MemoryStorage is one context's view of a MemoryBackend.
type MemoryStorage struct {
	backend *MemoryBackend
	origin  string
}

func (s *MemoryStorage) Origin() string { return s.origin }

func (s *MemoryStorage) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	s.backend.mu.RLock()
	defer s.backend.mu.RUnlock()

	v, ok := s.backend.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *MemoryStorage) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.backend.mu.Lock()
	if s.backend.closed {
		s.backend.mu.Unlock()
		return ErrClosed
	}
	s.backend.data[key] = value
	s.backend.mu.Unlock()

	return s.backend.changes.Broadcast(ctx, broadcast.Message[Change]{
		Data: Change{Key: key, Origin: s.origin},
	})
}

func (s *MemoryStorage) Delete(ctx context.Context, keys ...string) error {
	s.backend.mu.Lock()
	if s.backend.closed {
		s.backend.mu.Unlock()
		return ErrClosed
	}
	removed := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := s.backend.data[k]; ok {
			delete(s.backend.data, k)
			removed = append(removed, k)
		}
	}
	s.backend.mu.Unlock()

	for _, k := range removed {
		if err := s.backend.changes.Broadcast(ctx, broadcast.Message[Change]{
			Data: Change{Key: k, Deleted: true, Origin: s.origin},
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryStorage) Watch(ctx context.Context) broadcast.Subscriber[Change] {
	return filterOrigin(ctx, s.backend.changes.Subscribe(ctx), s.origin)
}
