package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/storefront/pkg/apiclient"
	"github.com/dmitrymomot/storefront/pkg/broadcast"
	"github.com/dmitrymomot/storefront/pkg/logger"
	"github.com/dmitrymomot/storefront/pkg/storage"
)

// Broadcaster is the part of the topic bus the store needs.
type Broadcaster interface {
	broadcast.Publisher
	broadcast.Subscribable
}

// Store owns the credential and session of one browsing context. It is the
// only writer of their storage keys.
//
// Reads are served from an in-memory copy loaded lazily from storage on first
// access. Every auth-changed publish, including ones bridged from other
// contexts, marks the copy stale so the next read re-evaluates storage.
type Store struct {
	storage storage.Storage
	bus     Broadcaster
	auth    Authenticator
	keys    Keys
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	loaded  bool
	token   string
	session *Session

	unsubscribe broadcast.Unsubscribe
}

// New creates a Store. Nothing is read from storage until first access.
func New(st storage.Storage, bus Broadcaster, auth Authenticator, opts ...Option) (*Store, error) {
	if st == nil || bus == nil || auth == nil {
		return nil, ErrNilDependency
	}
	s := &Store{
		storage: st,
		bus:     bus,
		auth:    auth,
		keys:    DefaultKeys,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.unsubscribe = bus.Subscribe(broadcast.TopicAuthChanged, s.invalidate)
	return s, nil
}

// Keys returns the storage keys owned by the store.
func (s *Store) Keys() Keys { return s.keys }

// Login authenticates, persists the credential and session, and publishes
// auth-changed. A rejected login returns ErrInvalidCredentials and leaves
// the context anonymous; other failures leave the state untouched.
func (s *Store) Login(ctx context.Context, creds Credentials) (*Session, error) {
	token, sess, err := s.auth.Authenticate(ctx, creds)
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			s.logger.InfoContext(ctx, "login rejected",
				logger.Component("session"),
				logger.Status(apiclient.StatusOf(err)),
			)
			if s.reset(ctx) {
				s.bus.Publish(ctx, broadcast.TopicAuthChanged)
			}
			return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		}
		return nil, err
	}
	if token == "" || sess == nil || sess.UserID == "" {
		return nil, ErrMalformedLogin
	}

	raw, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersist, err)
	}

	s.mu.Lock()
	if err := s.storage.Set(ctx, s.keys.Credential, token); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if err := s.storage.Set(ctx, s.keys.Session, string(raw)); err != nil {
		_ = s.storage.Delete(ctx, s.keys.Credential)
		s.loaded = false
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	s.token = token
	s.session = sess.Clone()
	s.loaded = true
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "signed in",
		logger.Component("session"),
		logger.UserID(sess.UserID),
	)
	s.bus.Publish(ctx, broadcast.TopicAuthChanged)
	return sess.Clone(), nil
}

// Logout clears the credential and session and publishes auth-changed.
// Calling it while anonymous is a no-op apart from clearing storage.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.ensureLoaded(ctx)
	wasAuthenticated := s.token != ""
	err := s.storage.Delete(ctx, s.keys.List()...)
	s.token, s.session, s.loaded = "", nil, true
	s.mu.Unlock()

	if wasAuthenticated {
		s.logger.InfoContext(ctx, "signed out", logger.Component("session"))
		s.bus.Publish(ctx, broadcast.TopicAuthChanged)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

// Current returns a copy of the signed-in session. It never calls the
// remote API.
func (s *Store) Current(ctx context.Context) (*Session, bool) {
	sess, _ := s.read(ctx)
	if sess == nil {
		return nil, false
	}
	return sess, true
}

// HasCredential reports whether a usable credential is present.
func (s *Store) HasCredential(ctx context.Context) bool {
	_, token := s.read(ctx)
	return token != ""
}

// Credential returns the bearer token, or "" when anonymous. It lets the
// store act as an apiclient.CredentialSource.
func (s *Store) Credential(ctx context.Context) string {
	_, token := s.read(ctx)
	return token
}

// HasRole reports whether the current session carries role.
func (s *Store) HasRole(ctx context.Context, role string) bool {
	sess, _ := s.read(ctx)
	return sess.HasRole(role)
}

// State returns Authenticated when a session and credential are present.
func (s *Store) State(ctx context.Context) State {
	if s.HasCredential(ctx) {
		return Authenticated
	}
	return Anonymous
}

// Close detaches the store from the bus.
func (s *Store) Close() error {
	s.unsubscribe()
	return nil
}

// read returns the cached session and token, rehydrating when stale. An
// expired credential is cleared and announced before returning.
func (s *Store) read(ctx context.Context) (*Session, string) {
	s.mu.Lock()
	s.ensureLoaded(ctx)
	expired := s.token != "" && credentialExpired(s.token, s.now())
	if expired {
		s.clearLocked(ctx)
	}
	sess, token := s.session.Clone(), s.token
	s.mu.Unlock()

	if expired {
		s.logger.InfoContext(ctx, "credential expired",
			logger.Component("session"),
		)
		s.bus.Publish(ctx, broadcast.TopicAuthChanged)
	}
	return sess, token
}

func (s *Store) ensureLoaded(ctx context.Context) {
	if s.loaded {
		return
	}
	s.token, s.session = s.rehydrate(ctx)
	s.loaded = true
}

// rehydrate reads both keys. Anything short of a credential plus a decodable
// session counts as anonymous. Partial state is left alone: another context
// may be midway through a login.
func (s *Store) rehydrate(ctx context.Context) (string, *Session) {
	token, err := s.storage.Get(ctx, s.keys.Credential)
	if err != nil {
		logUnreadable(ctx, s.logger, err)
		return "", nil
	}
	raw, err := s.storage.Get(ctx, s.keys.Session)
	if err != nil {
		logUnreadable(ctx, s.logger, err)
		return "", nil
	}

	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil || sess.UserID == "" || token == "" {
		s.logger.WarnContext(ctx, "ignoring malformed session state",
			logger.Component("session"),
			logger.StorageKey(s.keys.Session),
		)
		return "", nil
	}
	return token, &sess
}

// reset clears any stored session and reports whether one was present.
func (s *Store) reset(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)
	had := s.token != ""
	if had {
		s.clearLocked(ctx)
	}
	return had
}

func (s *Store) clearLocked(ctx context.Context) {
	if err := s.storage.Delete(ctx, s.keys.List()...); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear session storage",
			logger.Component("session"),
			logger.Error(err),
		)
	}
	s.token, s.session, s.loaded = "", nil, true
}

func (s *Store) invalidate(context.Context, broadcast.Topic) {
	s.mu.Lock()
	s.loaded = false
	s.mu.Unlock()
}

func logUnreadable(ctx context.Context, log *slog.Logger, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		return
	}
	log.ErrorContext(ctx, "session storage unreadable",
		logger.Component("session"),
		logger.Error(err),
	)
}
