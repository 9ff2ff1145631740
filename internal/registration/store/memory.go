package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"takaful/internal/registration/models"
	"takaful/pkg/domain"
	"takaful/pkg/platform/sentinel"
)

// InMemory is the mutex-guarded registration store used by unit tests and
// single-node development runs. It mirrors the Postgres store's semantics,
// including Execute atomicity.
type InMemory struct {
	mu   sync.RWMutex
	regs map[domain.RegistrationID]*models.Registration
}

func NewInMemory() *InMemory {
	return &InMemory{regs: make(map[domain.RegistrationID]*models.Registration)}
}

func (s *InMemory) Create(ctx context.Context, reg *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.regs[reg.ID]; ok {
		return sentinel.ErrConflict
	}
	for _, existing := range s.regs {
		if existing.MemberID == reg.MemberID && !existing.Status.Terminal() {
			// One open registration per member per submission cycle.
			return sentinel.ErrConflict
		}
	}
	s.regs[reg.ID] = reg.Clone()
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, id domain.RegistrationID) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reg, ok := s.regs[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return reg.Clone(), nil
}

func (s *InMemory) FindByMemberID(ctx context.Context, memberID domain.MemberID) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var newest *models.Registration
	for _, reg := range s.regs {
		if reg.MemberID != memberID {
			continue
		}
		if newest == nil || reg.CreatedAt.After(newest.CreatedAt) {
			newest = reg
		}
	}
	if newest == nil {
		return nil, sentinel.ErrNotFound
	}
	return newest.Clone(), nil
}

func (s *InMemory) List(ctx context.Context, filter Filter) ([]*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Registration
	for _, reg := range s.regs {
		if matches(reg, filter) {
			out = append(out, reg.Clone())
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return submissionTime(out[i]).Before(submissionTime(out[j]))
	})
	return out, nil
}

func (s *InMemory) Execute(ctx context.Context, id domain.RegistrationID,
	validate func(*models.Registration) error,
	mutate func(*models.Registration)) (*models.Registration, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.regs[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	// Validate against a clone so a failed check leaves stored state intact
	// even if the callback mutates its argument.
	work := reg.Clone()
	if err := validate(work); err != nil {
		return nil, err
	}
	mutate(work)
	s.regs[id] = work
	return work.Clone(), nil
}

func (s *InMemory) CountByStatus(ctx context.Context, branchID domain.BranchID) (map[models.Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[models.Status]int)
	for _, reg := range s.regs {
		if !branchID.IsNil() && reg.BranchID != branchID {
			continue
		}
		counts[reg.Status]++
	}
	return counts, nil
}

func matches(reg *models.Registration, f Filter) bool {
	if !f.BranchID.IsNil() && reg.BranchID != f.BranchID {
		return false
	}
	if !f.AssignedTo.IsNil() && reg.AssignedTo != f.AssignedTo {
		return false
	}
	if f.Status != "" && reg.Status != f.Status {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(strings.TrimSpace(f.Search))
		hay := strings.ToLower(reg.FullName + " " + reg.NationalID + " " + reg.Phone)
		if !strings.Contains(hay, needle) {
			return false
		}
	}
	return true
}

func submissionTime(reg *models.Registration) time.Time {
	if reg.SubmittedAt != nil {
		return *reg.SubmittedAt
	}
	return reg.CreatedAt
}
