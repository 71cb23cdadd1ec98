package audit

import (
	"context"
	"sync"
)

// MemoryStorage keeps events in memory. Test and development use only.
type MemoryStorage struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) Store(ctx context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *MemoryStorage) Query(ctx context.Context, criteria Criteria) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]Event, 0)
	for _, e := range s.events {
		if !matches(e, criteria) {
			continue
		}
		matched = append(matched, e)
	}

	if criteria.Offset > 0 {
		if criteria.Offset >= len(matched) {
			return []Event{}, nil
		}
		matched = matched[criteria.Offset:]
	}
	if criteria.Limit > 0 && len(matched) > criteria.Limit {
		matched = matched[:criteria.Limit]
	}
	return matched, nil
}

func matches(e Event, c Criteria) bool {
	if c.ActorID != "" && e.ActorID != c.ActorID {
		return false
	}
	if c.TargetID != "" && e.TargetID != c.TargetID {
		return false
	}
	if c.Action != "" && e.Action != c.Action {
		return false
	}
	if c.Resource != "" && e.Resource != c.Resource {
		return false
	}
	if !c.From.IsZero() && e.CreatedAt.Before(c.From) {
		return false
	}
	if !c.To.IsZero() && e.CreatedAt.After(c.To) {
		return false
	}
	return true
}
