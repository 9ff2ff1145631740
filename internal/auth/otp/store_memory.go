package otp

import (
	"context"
	"sync"
	"time"

	"takaful/pkg/platform/sentinel"
)

type challenge struct {
	codeHash  string
	expiresAt time.Time
	attempts  int
}

// InMemoryStore mirrors the Redis store semantics for unit tests and dev runs
// without Redis.
type InMemoryStore struct {
	mu         sync.Mutex
	challenges map[string]*challenge
	lastSent   map[string]time.Time
	now        func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		challenges: make(map[string]*challenge),
		lastSent:   make(map[string]time.Time),
		now:        time.Now,
	}
}

// WithClock replaces the store clock. Test helper.
func (s *InMemoryStore) WithClock(now func() time.Time) *InMemoryStore {
	s.now = now
	return s
}

func (s *InMemoryStore) SaveCode(ctx context.Context, phone, codeHash string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[phone] = &challenge{codeHash: codeHash, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *InMemoryStore) LoadCode(ctx context.Context, phone string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[phone]
	if !ok || s.now().After(c.expiresAt) {
		delete(s.challenges, phone)
		return "", sentinel.ErrNotFound
	}
	return c.codeHash, nil
}

func (s *InMemoryStore) CountAttempt(ctx context.Context, phone string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[phone]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	c.attempts++
	return c.attempts, nil
}

func (s *InMemoryStore) Clear(ctx context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.challenges, phone)
	return nil
}

func (s *InMemoryStore) MarkSent(ctx context.Context, phone string, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if last, ok := s.lastSent[phone]; ok && s.now().Sub(last) < window {
		return false, nil
	}
	s.lastSent[phone] = s.now()
	return true, nil
}
