package user

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"takaful/pkg/domain"
	"takaful/pkg/platform/sentinel"
)

// InMemoryStore is the mutex-guarded user store for unit tests and dev runs.
type InMemoryStore struct {
	mu      sync.RWMutex
	users   map[domain.UserID]*User
	byEmail map[string]domain.UserID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:   make(map[domain.UserID]*User),
		byEmail: make(map[string]domain.UserID),
	}
}

func (s *InMemoryStore) Create(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, ok := s.users[u.ID]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.byEmail[key]; ok {
		return sentinel.ErrConflict
	}
	cp := *u
	s.users[u.ID] = &cp
	s.byEmail[key] = u.ID
	return nil
}

func (s *InMemoryStore) FindByID(ctx context.Context, id domain.UserID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *InMemoryStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.users[id]
	return &cp, nil
}

func (s *InMemoryStore) List(ctx context.Context, branchID domain.BranchID, role domain.Role) ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*User
	for _, u := range s.users {
		if !branchID.IsNil() && u.BranchID != branchID {
			continue
		}
		if role != "" && u.Role != role {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (s *InMemoryStore) SetActive(ctx context.Context, id domain.UserID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	u.Active = active
	u.UpdatedAt = time.Now()
	return nil
}
