package promo

import (
	"context"
	"slices"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store for tests and development.
type MemoryStore struct {
	mu    sync.Mutex
	codes map[string]*Code // keyed by normalized code
	uses  []Redemption
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{codes: make(map[string]*Code)}
}

func (s *MemoryStore) GetByCode(ctx context.Context, code string) (*Code, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.codes[code]
	if !ok {
		return nil, ErrCodeNotFound
	}
	return cloneCode(record), nil
}

func (s *MemoryStore) Create(ctx context.Context, code *Code) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.codes[code.Code]; ok {
		return ErrCodeAlreadyExists
	}
	s.codes[code.Code] = cloneCode(code)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, code *Code) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.codes[code.Code]
	if !ok {
		return ErrCodeNotFound
	}
	c := cloneCode(code)
	c.CurrentUses = existing.CurrentUses
	s.codes[code.Code] = c
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Code, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Code, 0, len(s.codes))
	for _, code := range s.codes {
		out = append(out, *cloneCode(code))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Redeem(ctx context.Context, redemption *Redemption) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, code := range s.codes {
		if code.ID != redemption.CodeID {
			continue
		}
		if code.Exhausted() {
			return ErrCodeExhausted
		}
		code.CurrentUses++
		s.uses = append(s.uses, *redemption)
		return nil
	}
	return ErrCodeNotFound
}

func cloneCode(c *Code) *Code {
	clone := *c
	clone.ApplicableTiers = slices.Clone(c.ApplicableTiers)
	if c.MaxUses != nil {
		v := *c.MaxUses
		clone.MaxUses = &v
	}
	if c.ValidUntil != nil {
		v := *c.ValidUntil
		clone.ValidUntil = &v
	}
	return &clone
}
