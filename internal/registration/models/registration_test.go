package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"takaful/pkg/domain"
	dErrors "takaful/pkg/domain-errors"
)

type RegistrationSuite struct {
	suite.Suite
	now      time.Time
	manager  domain.Actor
	employee domain.Actor
}

func TestRegistrationSuite(t *testing.T) {
	suite.Run(t, new(RegistrationSuite))
}

func (s *RegistrationSuite) SetupTest() {
	s.now = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	s.manager = domain.Actor{
		ID:       domain.NewUserID(),
		Role:     domain.RoleBranchManager,
		BranchID: domain.NewBranchID(),
		Name:     "منى العتيبي",
	}
	s.employee = domain.Actor{
		ID:       domain.NewUserID(),
		Role:     domain.RoleEmployee,
		BranchID: s.manager.BranchID,
		Name:     "خالد الشمري",
	}
}

func (s *RegistrationSuite) newRegistration(status Status) *Registration {
	r := NewRegistration(
		domain.NewRegistrationID(),
		domain.NewMemberID(),
		s.manager.BranchID,
		Snapshot{FullName: "سارة أحمد", NationalID: "1023456789", Phone: "0501234567"},
		s.now.Add(-time.Hour),
	)
	r.Status = status
	return r
}

func (s *RegistrationSuite) TestNewRegistrationStartsIncomplete() {
	r := s.newRegistration(StatusProfileIncomplete)
	s.Equal(StatusProfileIncomplete, r.Status)
	s.EqualValues(1, r.Version)
	s.Nil(r.SubmittedAt)
	s.Nil(r.EmployeeReviewDate)
	s.Nil(r.ManagerReviewDate)
}

func (s *RegistrationSuite) TestRejectionRequiresReason() {
	r := s.newRegistration(StatusPendingReview)

	// Empty and whitespace-only reasons fail before any mutation.
	for _, reason := range []string{"", "   ", "\t\n"} {
		err := r.CanTransition(domain.RoleBranchManager, StatusRejected, reason)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
		s.Equal(StatusPendingReview, r.Status)
		s.Empty(r.RejectionReason)
	}

	reason := "وثائق غير صحيحة"
	s.Require().NoError(r.CanTransition(domain.RoleBranchManager, StatusRejected, reason))
	r.ApplyTransition(s.manager, StatusRejected, reason, s.now)

	s.Equal(StatusRejected, r.Status)
	s.Equal(reason, r.RejectionReason)
	s.Require().NotNil(r.ManagerReviewDate)
	s.Equal(s.now, *r.ManagerReviewDate)
	s.Equal(s.manager.Name, r.ManagerReviewerName)
}

func (s *RegistrationSuite) TestEmployeeForwardStampsNotesAndDate() {
	r := s.newRegistration(StatusUnderEmployeeReview)
	note := "راجعت المستندات"

	s.Require().NoError(r.CanTransition(domain.RoleEmployee, StatusUnderManagerReview, note))
	r.ApplyTransition(s.employee, StatusUnderManagerReview, note, s.now)

	s.Equal(StatusUnderManagerReview, r.Status)
	s.Equal(note, r.EmployeeNotes)
	s.Empty(r.ManagerNotes)
	s.Require().NotNil(r.EmployeeReviewDate)
	s.Equal(s.now, *r.EmployeeReviewDate)
	s.Nil(r.ManagerReviewDate)
}

func (s *RegistrationSuite) TestRoutingToEmployeeLeavesManagerReviewUnset() {
	r := s.newRegistration(StatusPendingReview)

	s.Require().NoError(r.CanTransition(domain.RoleBranchManager, StatusUnderEmployeeReview, ""))
	r.ApplyTransition(s.manager, StatusUnderEmployeeReview, "", s.now)

	// The manager routed, nobody reviewed yet.
	s.Equal(StatusUnderEmployeeReview, r.Status)
	s.Nil(r.ManagerReviewDate)
	s.True(r.ManagerReviewerID.IsNil())
	s.Empty(r.ManagerReviewerName)
	s.Nil(r.EmployeeReviewDate)

	// A later manager decision stamps the manager fields as usual.
	r.Status = StatusUnderManagerReview
	r.ApplyTransition(s.manager, StatusApproved, "", s.now)
	s.Require().NotNil(r.ManagerReviewDate)
	s.Equal(s.manager.ID, r.ManagerReviewerID)
}

func (s *RegistrationSuite) TestSameStatusIsConflict() {
	r := s.newRegistration(StatusUnderEmployeeReview)
	r.ApplyTransition(s.employee, StatusUnderManagerReview, "", s.now)
	firstStamp := *r.EmployeeReviewDate
	version := r.Version

	err := r.CanTransition(domain.RoleEmployee, StatusUnderManagerReview, "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	// No duplicate audit stamps, no version bump.
	s.Equal(firstStamp, *r.EmployeeReviewDate)
	s.Equal(version, r.Version)
}

func (s *RegistrationSuite) TestIllegalTransitionsRejected() {
	cases := []struct {
		from  Status
		actor domain.Role
		to    Status
	}{
		{StatusApproved, domain.RoleBranchManager, StatusRejected},
		{StatusRejected, domain.RoleBranchManager, StatusApproved},
		{StatusPendingReview, domain.RoleEmployee, StatusApproved},
		{StatusUnderEmployeeReview, domain.RoleBranchManager, StatusApproved},
		{StatusPendingReview, domain.RoleBeneficiary, StatusApproved},
		{StatusProfileIncomplete, domain.RoleBeneficiary, StatusPendingReview},
	}
	for _, tc := range cases {
		r := s.newRegistration(tc.from)
		err := r.CanTransition(tc.actor, tc.to, "note")
		s.Require().Error(err, "%s/%s -> %s", tc.from, tc.actor, tc.to)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		s.Equal(tc.from, r.Status)
	}
}

func (s *RegistrationSuite) TestUnknownTargetStatus() {
	r := s.newRegistration(StatusPendingReview)
	err := r.CanTransition(domain.RoleBranchManager, Status("archived"), "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *RegistrationSuite) TestResubmissionReentersPendingReview() {
	r := s.newRegistration(StatusNeedsCorrection)
	beneficiary := domain.Actor{ID: domain.NewUserID(), Role: domain.RoleBeneficiary, MemberID: r.MemberID}

	s.Require().NoError(r.CanTransition(domain.RoleBeneficiary, StatusPendingReview, ""))
	r.ApplyTransition(beneficiary, StatusPendingReview, "", s.now)

	s.Equal(StatusPendingReview, r.Status)
	s.Require().NotNil(r.SubmittedAt)
	s.Equal(s.now, *r.SubmittedAt)
	// Beneficiary progression never stamps review fields.
	s.Nil(r.EmployeeReviewDate)
	s.Nil(r.ManagerReviewDate)
}

func (s *RegistrationSuite) TestAssignment() {
	s.Run("legal while pending review", func() {
		r := s.newRegistration(StatusPendingReview)
		s.Require().NoError(r.CanAssign())
		r.ApplyAssignment(s.employee.ID, s.manager.ID, s.now)
		s.Equal(s.employee.ID, r.AssignedTo)
		s.Equal(s.manager.ID, r.AssignedBy)
		s.Require().NotNil(r.AssignedDate)
	})

	s.Run("re-routing while under employee review", func() {
		r := s.newRegistration(StatusUnderEmployeeReview)
		s.Require().NoError(r.CanAssign())
	})

	s.Run("conflict in terminal and early states", func() {
		for _, st := range []Status{StatusProfileIncomplete, StatusApproved, StatusRejected, StatusUnderManagerReview} {
			r := s.newRegistration(st)
			err := r.CanAssign()
			s.Require().Error(err, "status %s", st)
			s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		}
	})
}

func (s *RegistrationSuite) TestProfileCompletion() {
	r := s.newRegistration(StatusProfileIncomplete)

	s.Require().NoError(r.CanSetProfileCompletion(60))
	r.ApplyProfileCompletion(60, s.now)
	s.Equal(60, r.ProfileCompletion)

	s.Require().Error(r.CanSetProfileCompletion(101))
	s.Require().Error(r.CanSetProfileCompletion(-1))

	r.Status = StatusPendingReview
	err := r.CanSetProfileCompletion(80)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *RegistrationSuite) TestCloneIsDeep() {
	r := s.newRegistration(StatusPendingReview)
	r.ApplyTransition(s.manager, StatusRejected, "سبب", s.now)

	cp := r.Clone()
	cp.Status = StatusApproved
	*cp.ManagerReviewDate = cp.ManagerReviewDate.Add(time.Hour)

	s.Equal(StatusRejected, r.Status)
	s.Equal(s.now, *r.ManagerReviewDate)
}
