package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/murmur"
	"github.com/aretw0/murmur/internal/logging"
	"github.com/aretw0/murmur/pkg/domain"
	"github.com/aretw0/murmur/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed replica can hold a session.
const DefaultLockTTL = 30 * time.Second

// EngineFactory builds a fresh engine for one request. Engines are not shared
// between requests: each operation restores the stored snapshot into a new one.
type EngineFactory func() (*murmur.Engine, error)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager runs dialogue operations against persisted sessions.
// Operations on the same session are serialized in-process, and across replicas
// when a DistributedLocker is configured. Unused locks are reference counted away.
type Manager struct {
	store   ports.SnapshotStore
	factory EngineFactory

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
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
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a session manager persisting to store.
func NewManager(store ports.SnapshotStore, factory EngineFactory, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		factory: factory,
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
// The caller locks entry.mu and calls release once it is unlocked.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[sessionID]
	if !ok {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[sessionID]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Start begins a new traversal at nodeID, replacing any stored session.
func (m *Manager) Start(ctx context.Context, sessionID, nodeID string, opts ...murmur.StartOption) (*domain.Snapshot, error) {
	return m.Create(ctx, sessionID, func(e *murmur.Engine) error {
		return e.StartDialogue(nodeID, opts...)
	})
}

// Create runs fn on a fresh engine and stores the result as the session,
// replacing any stored one. When fn fails nothing is saved.
func (m *Manager) Create(ctx context.Context, sessionID string, fn func(*murmur.Engine) error) (*domain.Snapshot, error) {
	var snapshot *domain.Snapshot
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		engine, err := m.factory()
		if err != nil {
			return fmt.Errorf("failed to create engine: %w", err)
		}
		if err := fn(engine); err != nil {
			return err
		}
		snapshot, err = m.persist(ctx, sessionID, engine)
		return err
	})
	return snapshot, err
}

// Do restores a stored session, applies fn and saves the result.
// When fn fails nothing is saved.
func (m *Manager) Do(ctx context.Context, sessionID string, fn func(*murmur.Engine) error) (*domain.Snapshot, error) {
	var snapshot *domain.Snapshot
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		stored, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		engine, err := m.factory()
		if err != nil {
			return fmt.Errorf("failed to create engine: %w", err)
		}
		if err := engine.Restore(stored); err != nil {
			return fmt.Errorf("failed to restore session %s: %w", sessionID, err)
		}
		if err := fn(engine); err != nil {
			return err
		}
		snapshot, err = m.persist(ctx, sessionID, engine)
		return err
	})
	return snapshot, err
}

func (m *Manager) persist(ctx context.Context, sessionID string, engine *murmur.Engine) (*domain.Snapshot, error) {
	engine.SkipReading()
	snapshot := engine.Snapshot()
	if err := m.store.Save(ctx, sessionID, snapshot); err != nil {
		return nil, fmt.Errorf("failed to save session %s: %w", sessionID, err)
	}
	m.logger.Debug("session saved", "session_id", sessionID, "depth", snapshot.Depth())
	return snapshot, nil
}

// Load retrieves a stored session.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	var snapshot *domain.Snapshot
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		snapshot, err = m.store.Load(ctx, sessionID)
		return err
	})
	return snapshot, err
}

// Delete removes a session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying snapshot store.
func (m *Manager) Store() ports.SnapshotStore {
	return m.store
}

// WithLock executes fn while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// The request context may already be cancelled; the lock still has to go.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("failed to release distributed lock, it will expire",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// IsNotFound reports whether err means the session does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrSessionNotFound)
}
