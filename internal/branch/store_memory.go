package branch

import (
	"context"
	"sort"
	"sync"
	"time"

	"takaful/pkg/domain"
	"takaful/pkg/platform/sentinel"
)

// InMemoryStore is the mutex-guarded branch store for unit tests and dev runs.
type InMemoryStore struct {
	mu       sync.RWMutex
	branches map[domain.BranchID]*Branch
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{branches: make(map[domain.BranchID]*Branch)}
}

func (s *InMemoryStore) Create(ctx context.Context, b *Branch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.branches[b.ID]; ok {
		return sentinel.ErrConflict
	}
	cp := *b
	s.branches[b.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(ctx context.Context, id domain.BranchID) (*Branch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.branches[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *InMemoryStore) List(ctx context.Context, activeOnly bool) ([]*Branch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Branch
	for _, b := range s.branches {
		if activeOnly && !b.Active {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemoryStore) SetActive(ctx context.Context, id domain.BranchID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.branches[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	b.Active = active
	b.UpdatedAt = time.Now()
	return nil
}
