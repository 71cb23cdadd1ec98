package admin

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and development.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[uuid.UUID]*Record)}
}

func (s *MemoryStore) Get(ctx context.Context, principalID uuid.UUID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[principalID]
	if !ok {
		return nil, ErrAdminNotFound
	}
	return cloneRecord(record), nil
}

func (s *MemoryStore) Save(ctx context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.PrincipalID] = cloneRecord(record)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, principalID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[principalID]; !ok {
		return ErrAdminNotFound
	}
	delete(s.records, principalID)
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, *cloneRecord(record))
	}
	return out, nil
}

// cloneRecord copies the record and its permission map so callers cannot
// mutate stored state.
func cloneRecord(r *Record) *Record {
	c := *r
	c.Permissions = maps.Clone(r.Permissions)
	return &c
}
