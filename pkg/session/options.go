package session

import (
	"log/slog"
	"time"
)

// Option configures a Store.
type Option func(*Store)

// WithKeys overrides the durable storage keys.
func WithKeys(keys Keys) Option {
	return func(s *Store) {
		if keys.Credential != "" && keys.Session != "" && keys.Credential != keys.Session {
			s.keys = keys
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now for credential expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}
