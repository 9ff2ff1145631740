package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"takaful/internal/registration/models"
	"takaful/pkg/domain"
	dErrors "takaful/pkg/domain-errors"
	"takaful/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
}

func (s *MemoryStoreSuite) newRegistration(branchID domain.BranchID, status models.Status, name string) *models.Registration {
	reg := models.NewRegistration(
		domain.NewRegistrationID(),
		domain.NewMemberID(),
		branchID,
		models.Snapshot{FullName: name, NationalID: "10900" + name, Phone: "0555"},
		s.now,
	)
	reg.Status = status
	return reg
}

func (s *MemoryStoreSuite) TestCreateAndFind() {
	branch := domain.NewBranchID()
	reg := s.newRegistration(branch, models.StatusPendingReview, "A")
	s.Require().NoError(s.store.Create(s.ctx, reg))

	found, err := s.store.FindByID(s.ctx, reg.ID)
	s.Require().NoError(err)
	s.Equal(reg.MemberID, found.MemberID)

	byMember, err := s.store.FindByMemberID(s.ctx, reg.MemberID)
	s.Require().NoError(err)
	s.Equal(reg.ID, byMember.ID)

	_, err = s.store.FindByID(s.ctx, domain.NewRegistrationID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestCreateRejectsSecondOpenRegistration() {
	branch := domain.NewBranchID()
	reg := s.newRegistration(branch, models.StatusPendingReview, "A")
	s.Require().NoError(s.store.Create(s.ctx, reg))

	dup := s.newRegistration(branch, models.StatusProfileIncomplete, "B")
	dup.MemberID = reg.MemberID
	s.Require().ErrorIs(s.store.Create(s.ctx, dup), sentinel.ErrConflict)

	// A terminal registration does not block a new cycle.
	closed := s.newRegistration(branch, models.StatusRejected, "C")
	s.Require().NoError(s.store.Create(s.ctx, closed))
	next := s.newRegistration(branch, models.StatusProfileIncomplete, "D")
	next.MemberID = closed.MemberID
	s.Require().NoError(s.store.Create(s.ctx, next))
}

// TestListFiltering covers branch/status scoping independent of insertion order.
func (s *MemoryStoreSuite) TestListFiltering() {
	branchA := domain.NewBranchID()
	branchB := domain.NewBranchID()

	// Insert out of submission order on purpose.
	second := s.newRegistration(branchA, models.StatusPendingReview, "Second")
	late := s.now.Add(2 * time.Hour)
	second.SubmittedAt = &late
	first := s.newRegistration(branchA, models.StatusPendingReview, "First")
	early := s.now.Add(time.Hour)
	first.SubmittedAt = &early
	other := s.newRegistration(branchB, models.StatusPendingReview, "OtherBranch")
	approved := s.newRegistration(branchA, models.StatusApproved, "Approved")

	for _, reg := range []*models.Registration{second, first, other, approved} {
		s.Require().NoError(s.store.Create(s.ctx, reg))
	}

	got, err := s.store.List(s.ctx, Filter{BranchID: branchA, Status: models.StatusPendingReview})
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("First", got[0].FullName)
	s.Equal("Second", got[1].FullName)
	for _, reg := range got {
		s.Equal(branchA, reg.BranchID)
		s.Equal(models.StatusPendingReview, reg.Status)
	}
}

func (s *MemoryStoreSuite) TestListSearch() {
	branch := domain.NewBranchID()
	reg := s.newRegistration(branch, models.StatusPendingReview, "سارة أحمد")
	reg.NationalID = "1023456789"
	s.Require().NoError(s.store.Create(s.ctx, reg))
	noise := s.newRegistration(branch, models.StatusPendingReview, "خالد")
	noise.NationalID = "2000000000"
	s.Require().NoError(s.store.Create(s.ctx, noise))

	got, err := s.store.List(s.ctx, Filter{Search: "سارة"})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(reg.ID, got[0].ID)

	got, err = s.store.List(s.ctx, Filter{Search: "102345"})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(reg.ID, got[0].ID)
}

func (s *MemoryStoreSuite) TestListAssignedTo() {
	branch := domain.NewBranchID()
	emp := domain.NewUserID()
	mine := s.newRegistration(branch, models.StatusUnderEmployeeReview, "Mine")
	mine.AssignedTo = emp
	other := s.newRegistration(branch, models.StatusUnderEmployeeReview, "Other")
	other.AssignedTo = domain.NewUserID()
	s.Require().NoError(s.store.Create(s.ctx, mine))
	s.Require().NoError(s.store.Create(s.ctx, other))

	got, err := s.store.List(s.ctx, Filter{AssignedTo: emp})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(mine.ID, got[0].ID)
}

func (s *MemoryStoreSuite) TestExecuteAbortsOnValidateError() {
	reg := s.newRegistration(domain.NewBranchID(), models.StatusPendingReview, "A")
	s.Require().NoError(s.store.Create(s.ctx, reg))

	boom := dErrors.New(dErrors.CodeConflict, "nope")
	_, err := s.store.Execute(s.ctx, reg.ID,
		func(r *models.Registration) error { return boom },
		func(r *models.Registration) { r.Status = models.StatusApproved },
	)
	s.Require().ErrorIs(err, boom)

	found, err := s.store.FindByID(s.ctx, reg.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPendingReview, found.Status)
}

func (s *MemoryStoreSuite) TestExecuteAppliesMutation() {
	reg := s.newRegistration(domain.NewBranchID(), models.StatusPendingReview, "A")
	s.Require().NoError(s.store.Create(s.ctx, reg))

	updated, err := s.store.Execute(s.ctx, reg.ID,
		func(r *models.Registration) error { return nil },
		func(r *models.Registration) {
			r.Status = models.StatusApproved
			r.Version++
		},
	)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, updated.Status)

	found, err := s.store.FindByID(s.ctx, reg.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, found.Status)
	s.Equal(reg.Version+1, found.Version)
}

func (s *MemoryStoreSuite) TestCountByStatus() {
	branchA := domain.NewBranchID()
	branchB := domain.NewBranchID()
	for i := 0; i < 3; i++ {
		s.Require().NoError(s.store.Create(s.ctx, s.newRegistration(branchA, models.StatusPendingReview, "A")))
	}
	s.Require().NoError(s.store.Create(s.ctx, s.newRegistration(branchA, models.StatusApproved, "B")))
	s.Require().NoError(s.store.Create(s.ctx, s.newRegistration(branchB, models.StatusPendingReview, "C")))

	counts, err := s.store.CountByStatus(s.ctx, branchA)
	s.Require().NoError(err)
	s.Equal(3, counts[models.StatusPendingReview])
	s.Equal(1, counts[models.StatusApproved])

	all, err := s.store.CountByStatus(s.ctx, domain.BranchID{})
	s.Require().NoError(err)
	s.Equal(4, all[models.StatusPendingReview])
}
