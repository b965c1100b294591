package history

import (
	"context"
	"sync"
)

type userHistory struct {
	recent []string
	total  int
}

// InMemoryStore is the process-local history store used by default.
type InMemoryStore struct {
	mu     sync.RWMutex
	window int
	users  map[string]*userHistory
}

func NewInMemoryStore(window int) *InMemoryStore {
	if window <= 0 {
		window = DefaultWindow
	}
	return &InMemoryStore{
		window: window,
		users:  make(map[string]*userHistory),
	}
}

func (s *InMemoryStore) Record(_ context.Context, userID, venueID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.users[userID]
	if !ok {
		h = &userHistory{}
		s.users[userID] = h
	}
	h.recent = append(h.recent, venueID)
	if len(h.recent) > s.window {
		h.recent = h.recent[len(h.recent)-s.window:]
	}
	h.total++
	return h.total, nil
}

func (s *InMemoryStore) Recent(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.users[userID]
	if !ok || len(h.recent) == 0 {
		return nil, nil
	}
	out := make([]string, len(h.recent))
	copy(out, h.recent)
	return out, nil
}

func (s *InMemoryStore) Count(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.users[userID]
	if !ok {
		return 0, nil
	}
	return h.total, nil
}

func (s *InMemoryStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
	return nil
}

func (s *InMemoryStore) Close() error { return nil }
