package subscription

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and development.
type MemoryStore struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]*Subscription
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subs: make(map[uuid.UUID]*Subscription)}
}

func (s *MemoryStore) Get(ctx context.Context, principalID uuid.UUID) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subs[principalID]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	c := *sub
	return &c, nil
}

func (s *MemoryStore) Save(ctx context.Context, sub *Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *sub
	s.subs[sub.PrincipalID] = &c
	return nil
}

func (s *MemoryStore) SaveSequenced(ctx context.Context, sub *Subscription, expectedSeq int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.subs[sub.PrincipalID]
	if !ok {
		if expectedSeq != 0 {
			return ErrStaleEvent
		}
	} else if existing.LastEventSeq != expectedSeq {
		return ErrStaleEvent
	}

	c := *sub
	s.subs[sub.PrincipalID] = &c
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		out = append(out, *sub)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
