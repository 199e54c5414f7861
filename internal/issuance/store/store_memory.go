package store

import (
	"context"
	"sync"
	"time"

	"medcred/internal/issuance/models"
)

type entry struct {
	session   models.Session
	expiresAt time.Time
}

// InMemoryStore keeps sessions in process memory. Expired entries are
// dropped lazily.
type InMemoryStore struct {
	mu   sync.RWMutex
	data map[string]entry
	ttl  time.Duration
	now  func() time.Time
}

// NewInMemory creates a store whose sessions live for ttl.
func NewInMemory(ttl time.Duration) *InMemoryStore {
	return &InMemoryStore{data: make(map[string]entry), ttl: ttl, now: time.Now}
}

// WithClock overrides the store clock (tests).
func (s *InMemoryStore) WithClock(now func() time.Time) *InMemoryStore {
	s.now = now
	return s
}

func (s *InMemoryStore) Save(_ context.Context, session models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.pruneLocked(now)
	s.data[session.State] = entry{session: session, expiresAt: now.Add(s.ttl)}
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, state string) (models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[state]
	if !ok || !s.now().Before(e.expiresAt) {
		return models.Session{}, ErrNotFound
	}
	return e.session, nil
}

func (s *InMemoryStore) Update(_ context.Context, state string, fn func(*models.Session) error) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[state]
	if !ok || !s.now().Before(e.expiresAt) {
		return models.Session{}, ErrNotFound
	}
	session := e.session
	if err := fn(&session); err != nil {
		return models.Session{}, err
	}
	e.session = session
	s.data[state] = e
	return session, nil
}

// Len reports live sessions.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	now := s.now()
	for _, e := range s.data {
		if now.Before(e.expiresAt) {
			n++
		}
	}
	return n
}

func (s *InMemoryStore) pruneLocked(now time.Time) {
	for k, e := range s.data {
		if !now.Before(e.expiresAt) {
			delete(s.data, k)
		}
	}
}
