// Package branch manages the branch offices that beneficiaries register
// with. Branches scope the review workflow: managers and employees belong to
// exactly one branch and only see its registrations.
package branch

import (
	"time"

	"takaful/pkg/domain"
)

// Branch is one branch office.
type Branch struct {
	ID        domain.BranchID `json:"id"`
	Name      string          `json:"name"`
	City      string          `json:"city"`
	Phone     string          `json:"phone"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// New creates an active branch.
func New(name, city, phone string, now time.Time) *Branch {
	return &Branch{
		ID:        domain.NewBranchID(),
		Name:      name,
		City:      city,
		Phone:     phone,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
