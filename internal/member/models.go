// Package member manages beneficiary profiles. A member record is created the
// first time a phone number passes OTP verification; the profile is filled in
// afterwards and its completion percentage drives the registration out of the
// profile_incomplete status.
package member

import (
	"time"

	"takaful/pkg/domain"
)

// Member is one beneficiary profile. Phone is the login key and is immutable
// after creation.
type Member struct {
	ID                domain.MemberID `json:"id"`
	FullName          string          `json:"full_name"`
	NationalID        string          `json:"national_id"`
	Phone             string          `json:"phone"`
	Email             string          `json:"email,omitempty"`
	City              string          `json:"city,omitempty"`
	DisabilityType    string          `json:"disability_type,omitempty"`
	EmploymentStatus  string          `json:"employment_status,omitempty"`
	PreferredBranchID domain.BranchID `json:"preferred_branch_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// New creates a bare member for a verified phone number.
func New(phone string, now time.Time) *Member {
	return &Member{
		ID:        domain.NewMemberID(),
		Phone:     phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// profileFields lists the profile inputs that count toward completion. Phone
// is excluded: it exists by construction.
func (m *Member) profileFields() []string {
	branch := ""
	if !m.PreferredBranchID.IsNil() {
		branch = m.PreferredBranchID.String()
	}
	return []string{
		m.FullName,
		m.NationalID,
		m.Email,
		m.City,
		m.DisabilityType,
		m.EmploymentStatus,
		branch,
	}
}

// CompletionPercent computes how much of the profile is filled in, 0-100.
func (m *Member) CompletionPercent() int {
	fields := m.profileFields()
	filled := 0
	for _, f := range fields {
		if f != "" {
			filled++
		}
	}
	return filled * 100 / len(fields)
}
