package audit

import (
	"context"
	"sync"
)

// InMemoryStore retains recent audit events in memory with a bounded cap.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
	cap    int
}

func NewInMemoryStore(capacity int) *InMemoryStore {
	if capacity <= 0 {
		capacity = 4096
	}
	return &InMemoryStore{cap: capacity}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	if len(s.events) > s.cap {
		s.events = s.events[len(s.events)-s.cap:]
	}
	return nil
}

// ListRecent returns up to limit events, newest last.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.events) {
		limit = len(s.events)
	}
	out := make([]Event, limit)
	copy(out, s.events[len(s.events)-limit:])
	return out, nil
}
