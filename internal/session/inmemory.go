package session

import (
	"context"
	"sync"
	"time"

	"whatevereat/internal/geo"
)

// InMemoryStore holds sessions in a process-local map. Expiry is lazy:
// Get treats an expired entry as missing, and an optional janitor removes
// stale entries purely to bound memory.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*UserSession
	ttl      time.Duration
	now      func() time.Time
}

func NewInMemoryStore(ttl time.Duration) *InMemoryStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &InMemoryStore{
		sessions: make(map[string]*UserSession),
		ttl:      ttl,
		now:      time.Now,
	}
}

// SetNowFunc replaces the clock. Tests use this to cross the expiry
// boundary deterministically.
func (s *InMemoryStore) SetNowFunc(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *InMemoryStore) Set(_ context.Context, userID string, coord geo.Coordinate, label, address string) (*UserSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	sess := &UserSession{
		UserID:     userID,
		Coordinate: coord,
		Label:      label,
		Address:    address,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}
	s.sessions[userID] = sess
	return clone(sess), nil
}

func (s *InMemoryStore) Get(_ context.Context, userID string) (*UserSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	if !ok || !s.now().UTC().Before(sess.ExpiresAt) {
		return nil, ErrNotFound
	}
	return clone(sess), nil
}

func (s *InMemoryStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}

func (s *InMemoryStore) ActiveCount(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now().UTC()
	count := 0
	for _, sess := range s.sessions {
		if now.Before(sess.ExpiresAt) {
			count++
		}
	}
	return count, nil
}

// StartJanitor sweeps expired sessions in the background. Correctness
// never depends on it; Get already ignores expired entries.
func (s *InMemoryStore) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

func (s *InMemoryStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	for userID, sess := range s.sessions {
		if !now.Before(sess.ExpiresAt) {
			delete(s.sessions, userID)
		}
	}
}

func (s *InMemoryStore) Close() error { return nil }

func clone(sess *UserSession) *UserSession {
	c := *sess
	return &c
}
