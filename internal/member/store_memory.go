package member

import (
	"context"
	"sync"

	"takaful/pkg/domain"
	"takaful/pkg/platform/sentinel"
)

// InMemoryStore is the mutex-guarded member store for unit tests and dev runs.
type InMemoryStore struct {
	mu      sync.RWMutex
	members map[domain.MemberID]*Member
	byPhone map[string]domain.MemberID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		members: make(map[domain.MemberID]*Member),
		byPhone: make(map[string]domain.MemberID),
	}
}

func (s *InMemoryStore) Create(ctx context.Context, m *Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[m.ID]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.byPhone[m.Phone]; ok {
		return sentinel.ErrConflict
	}
	cp := *m
	s.members[m.ID] = &cp
	s.byPhone[m.Phone] = m.ID
	return nil
}

func (s *InMemoryStore) FindByID(ctx context.Context, id domain.MemberID) (*Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *InMemoryStore) FindByPhone(ctx context.Context, phone string) (*Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byPhone[phone]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.members[id]
	return &cp, nil
}

func (s *InMemoryStore) Update(ctx context.Context, m *Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.members[m.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	// Phone is immutable; keep the index consistent.
	cp := *m
	cp.Phone = existing.Phone
	s.members[m.ID] = &cp
	return nil
}
