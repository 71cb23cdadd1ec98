package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryEntry struct {
	sess      Session
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. Meant for tests and single
// node development; production uses the Redis store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// WithClock overrides the expiry clock. Test hook.
func (m *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	m.now = now
	return m
}

func (m *MemoryStore) Get(ctx context.Context, key string) (*Session, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || m.now().After(entry.expiresAt) {
		return nil, ErrSessionNotFound
	}

	sess := entry.sess
	return &sess, nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, sess *Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = memoryEntry{sess: *sess, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

func (m *MemoryStore) DeletePrincipal(ctx context.Context, principalID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, entry := range m.entries {
		if entry.sess.Principal.ID == principalID {
			delete(m.entries, key)
		}
	}
	return nil
}
