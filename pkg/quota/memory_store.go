package quota

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type usageKey struct {
	principalID uuid.UUID
	kind        ResourceKind
	periodStart int64
}

// MemoryStore is an in-memory Store for tests and development.
type MemoryStore struct {
	mu    sync.Mutex
	usage map[usageKey]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{usage: make(map[usageKey]int64)}
}

func (s *MemoryStore) Add(ctx context.Context, principalID uuid.UUID, kind ResourceKind, periodStart time.Time, amount, limit int64) (int64, error) {
	key := usageKey{principalID, kind, periodStart.UTC().Unix()}

	s.mu.Lock()
	defer s.mu.Unlock()

	used := s.usage[key]
	if limit >= 0 && used+amount > limit {
		return 0, ErrQuotaExceeded
	}
	used += amount
	s.usage[key] = used
	return used, nil
}

func (s *MemoryStore) Used(ctx context.Context, principalID uuid.UUID, kind ResourceKind, periodStart time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage[usageKey{principalID, kind, periodStart.UTC().Unix()}], nil
}
