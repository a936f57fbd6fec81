package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/gashu/internal/logging"
	"github.com/aretw0/gashu/pkg/domain"
	"github.com/aretw0/gashu/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed turn lock may be held.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager serialises access to per-user sessions.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.SessionStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new session manager over the given store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(userID) after unlocking.
func (m *Manager) acquire(userID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[userID]
	if !exists {
		entry = &lockEntry{}
		m.locks[userID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[userID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, userID)
	}
}

// load returns the stored session or a fresh one. Callers hold the lock.
func (m *Manager) load(ctx context.Context, userID string) (*domain.Session, bool, error) {
	s, err := m.store.Load(ctx, userID)
	if err == nil {
		return s, true, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, false, fmt.Errorf("failed to load session %q: %w", userID, err)
	}
	return domain.NewSession(), false, nil
}

// Get returns the user's session, or a session with every slot at its
// default when none is stored. Nothing is persisted.
func (m *Manager) Get(ctx context.Context, userID string) (*domain.Session, error) {
	var s *domain.Session
	err := m.WithLock(ctx, userID, func(ctx context.Context) error {
		var err error
		s, _, err = m.load(ctx, userID)
		return err
	})
	return s, err
}

// Update runs fn on the user's session under the user lock and persists
// the result. The session is created lazily; an error from fn discards
// the changes.
func (m *Manager) Update(ctx context.Context, userID string, fn func(context.Context, *domain.Session) error) error {
	return m.WithLock(ctx, userID, func(ctx context.Context) error {
		s, _, err := m.load(ctx, userID)
		if err != nil {
			return err
		}
		if err := fn(ctx, s); err != nil {
			return err
		}
		if err := m.store.Save(ctx, userID, s); err != nil {
			return fmt.Errorf("failed to save session %q: %w", userID, err)
		}
		return nil
	})
}

// SetSlot overwrites one slot of the user's session.
func (m *Manager) SetSlot(ctx context.Context, userID, key string, value any) error {
	return m.Update(ctx, userID, func(_ context.Context, s *domain.Session) error {
		return s.SetSlot(key, value)
	})
}

// GetSlot reads one slot of the user's session into a T. The default is
// returned when the slot holds null or the user has no session.
func GetSlot[T any](ctx context.Context, m *Manager, userID, key string, def T) (T, error) {
	s, err := m.Get(ctx, userID)
	if err != nil {
		return def, err
	}
	raw, err := s.Slot(key)
	if err != nil {
		return def, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return def, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return def, fmt.Errorf("slot %q: %w", key, err)
	}
	return v, nil
}

// Reset clears the user's session. The next access starts from defaults.
func (m *Manager) Reset(ctx context.Context, userID string) error {
	return m.WithLock(ctx, userID, func(ctx context.Context) error {
		err := m.store.Delete(ctx, userID)
		if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			return err
		}
		return nil
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// WithLock executes a function while holding the lock for the user.
func (m *Manager) WithLock(ctx context.Context, userID string, fn func(context.Context) error) error {
	entry := m.acquire(userID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(userID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, userID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"user_id", userID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
