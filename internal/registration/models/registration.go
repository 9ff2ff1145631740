package models

import (
	"strings"
	"time"

	"takaful/pkg/domain"
	dErrors "takaful/pkg/domain-errors"
)

// Registration is the aggregate root tracking a beneficiary's application
// through the review states.
//
// Invariants:
//   - Status is always a member of the closed status set, never empty
//   - Status changes only through CanTransition + ApplyTransition, consulting
//     the transition table; stores execute both under a lock (mutex or
//     SELECT FOR UPDATE) so concurrent reviewers cannot race
//   - A transition whose rule requires a note never applies with a blank note
//   - approved and rejected are terminal for the submission cycle
//   - Version increments on every mutation; stale writers are rejected by the
//     store instead of silently winning
type Registration struct {
	ID       domain.RegistrationID `json:"id"`
	MemberID domain.MemberID       `json:"member_id"`
	BranchID domain.BranchID       `json:"branch_id"`
	Status   Status                `json:"status"`

	// Demographic snapshot, supplied at submission time. Read-mostly.
	FullName         string `json:"full_name"`
	NationalID       string `json:"national_id"`
	Phone            string `json:"phone"`
	Email            string `json:"email"`
	City             string `json:"city"`
	DisabilityType   string `json:"disability_type"`
	EmploymentStatus string `json:"employment_status"`

	// Audit trail. Reviewer identities are denormalized name/id snapshots
	// for display; they are not foreign keys into the users table.
	EmployeeNotes        string        `json:"employee_notes,omitempty"`
	ManagerNotes         string        `json:"manager_notes,omitempty"`
	RejectionReason      string        `json:"rejection_reason,omitempty"`
	EmployeeReviewDate   *time.Time    `json:"employee_review_date,omitempty"`
	ManagerReviewDate    *time.Time    `json:"manager_review_date,omitempty"`
	EmployeeReviewerID   domain.UserID `json:"employee_reviewer_id,omitempty"`
	EmployeeReviewerName string        `json:"employee_reviewer_name,omitempty"`
	ManagerReviewerID    domain.UserID `json:"manager_reviewer_id,omitempty"`
	ManagerReviewerName  string        `json:"manager_reviewer_name,omitempty"`

	// Assignment. Routing data, not a sub-state of the status machine.
	AssignedTo   domain.UserID `json:"assigned_to,omitempty"`
	AssignedBy   domain.UserID `json:"assigned_by,omitempty"`
	AssignedDate *time.Time    `json:"assigned_date,omitempty"`

	ProfileCompletion int        `json:"profile_completion"`
	SubmittedAt       *time.Time `json:"submitted_at,omitempty"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot carries the demographic fields captured when the registration is
// created or the profile is filled in. BranchID is the branch the beneficiary
// picked while completing the profile; the zero value leaves the current
// branch untouched.
type Snapshot struct {
	FullName         string
	NationalID       string
	Phone            string
	Email            string
	City             string
	DisabilityType   string
	EmploymentStatus string
	BranchID         domain.BranchID
}

// NewRegistration creates the registration record that accompanies a freshly
// verified member. The review cycle always starts at profile_incomplete.
func NewRegistration(id domain.RegistrationID, memberID domain.MemberID, branchID domain.BranchID, snap Snapshot, now time.Time) *Registration {
	return &Registration{
		ID:               id,
		MemberID:         memberID,
		BranchID:         branchID,
		Status:           StatusProfileIncomplete,
		FullName:         snap.FullName,
		NationalID:       snap.NationalID,
		Phone:            snap.Phone,
		Email:            snap.Email,
		City:             snap.City,
		DisabilityType:   snap.DisabilityType,
		EmploymentStatus: snap.EmploymentStatus,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// CanTransition checks whether the actor role may move this registration to
// the target status with the given note. It mutates nothing.
//
// Check order matters: unknown target first, then the idempotence guard (a
// repeat request for the current status is a clean conflict, not an illegal
// transition), then table legality, then the note rule.
func (r *Registration) CanTransition(actor domain.Role, to Status, note string) error {
	if !to.Valid() {
		return dErrors.Newf(dErrors.CodeBadRequest, "unknown status: %s", to)
	}
	if r.Status == to {
		return dErrors.Newf(dErrors.CodeConflict, "registration is already %s", to)
	}
	rule, ok := TransitionRule(r.Status, actor, to)
	if !ok {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"%s may not move registration from %s to %s", actor, r.Status, to)
	}
	if rule == NoteRequired && strings.TrimSpace(note) == "" {
		if to == StatusRejected {
			return dErrors.New(dErrors.CodeBadRequest, "rejection reason is required")
		}
		return dErrors.New(dErrors.CodeBadRequest, "correction notes are required")
	}
	return nil
}

// ApplyTransition moves the registration to the target status and stamps the
// acting role's audit fields. Call CanTransition first; stores run both inside
// Execute so the check and the mutation observe the same state.
func (r *Registration) ApplyTransition(actor domain.Actor, to Status, note string, now time.Time) {
	note = strings.TrimSpace(note)

	r.Status = to

	// Note routing: a rejection carries its reason; every other noted action
	// lands in the acting role's notes field.
	if to == StatusRejected {
		r.RejectionReason = note
	} else if note != "" {
		switch actor.Role {
		case domain.RoleEmployee:
			r.EmployeeNotes = note
		case domain.RoleBranchManager:
			r.ManagerNotes = note
		}
	}

	// Review stamps for reviewer decisions. Beneficiary-side progression does
	// not touch review dates, and neither does routing into employee review:
	// a manager who assigns has triaged, not reviewed.
	if to != StatusUnderEmployeeReview {
		switch actor.Role {
		case domain.RoleEmployee:
			t := now
			r.EmployeeReviewDate = &t
			r.EmployeeReviewerID = actor.ID
			r.EmployeeReviewerName = actor.Name
		case domain.RoleBranchManager:
			t := now
			r.ManagerReviewDate = &t
			r.ManagerReviewerID = actor.ID
			r.ManagerReviewerName = actor.Name
		}
	}

	// Entering pending_review marks a (re)submission.
	if to == StatusPendingReview {
		t := now
		r.SubmittedAt = &t
	}

	r.touch(now)
}

// CanAssign checks whether the registration can be routed to an employee.
// Assignment is legal while the registration waits for triage or is already in
// employee review (re-routing); everywhere else it is a conflict.
func (r *Registration) CanAssign() error {
	if r.Status != StatusPendingReview && r.Status != StatusUnderEmployeeReview {
		return dErrors.Newf(dErrors.CodeConflict,
			"registration in status %s cannot be assigned", r.Status)
	}
	return nil
}

// ApplyAssignment routes the registration to an employee. The status change
// that may accompany assignment (pending_review to under_employee_review) is
// applied separately by the service via ApplyTransition.
func (r *Registration) ApplyAssignment(employeeID, assignedBy domain.UserID, now time.Time) {
	t := now
	r.AssignedTo = employeeID
	r.AssignedBy = assignedBy
	r.AssignedDate = &t
	r.touch(now)
}

// CanSetProfileCompletion validates a completion percentage update.
func (r *Registration) CanSetProfileCompletion(pct int) error {
	if pct < 0 || pct > 100 {
		return dErrors.Newf(dErrors.CodeBadRequest, "profile completion must be 0-100, got %d", pct)
	}
	if r.Status != StatusProfileIncomplete {
		return dErrors.Newf(dErrors.CodeConflict,
			"profile completion is only editable while the profile is incomplete, status is %s", r.Status)
	}
	return nil
}

// ApplyProfileCompletion records the new completion percentage.
func (r *Registration) ApplyProfileCompletion(pct int, now time.Time) {
	r.ProfileCompletion = pct
	r.touch(now)
}

// UpdateSnapshot refreshes the demographic snapshot from the member profile.
func (r *Registration) UpdateSnapshot(snap Snapshot, now time.Time) {
	if !snap.BranchID.IsNil() {
		r.BranchID = snap.BranchID
	}
	r.FullName = snap.FullName
	r.NationalID = snap.NationalID
	r.Phone = snap.Phone
	r.Email = snap.Email
	r.City = snap.City
	r.DisabilityType = snap.DisabilityType
	r.EmploymentStatus = snap.EmploymentStatus
	r.touch(now)
}

func (r *Registration) touch(now time.Time) {
	r.Version++
	r.UpdatedAt = now
}

// Clone returns a deep copy. Memory stores hand out clones so callers cannot
// mutate stored state without going through Execute.
func (r *Registration) Clone() *Registration {
	cp := *r
	cp.EmployeeReviewDate = cloneTime(r.EmployeeReviewDate)
	cp.ManagerReviewDate = cloneTime(r.ManagerReviewDate)
	cp.AssignedDate = cloneTime(r.AssignedDate)
	cp.SubmittedAt = cloneTime(r.SubmittedAt)
	return &cp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}
