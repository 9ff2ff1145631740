// Package store persists registrations. Stores are pure I/O plus locking;
// transition legality and note rules live in the models package and are
// evaluated inside Execute so validation and mutation observe the same state.
package store

import (
	"context"

	"takaful/internal/registration/models"
	"takaful/pkg/domain"
)

// Filter scopes List queries. Zero values mean "no constraint".
type Filter struct {
	BranchID   domain.BranchID
	AssignedTo domain.UserID
	Status     models.Status
	// Search matches name, national id and phone, case-insensitively.
	Search string
}

// Store is the registration persistence contract shared by the memory and
// Postgres implementations.
type Store interface {
	Create(ctx context.Context, reg *models.Registration) error
	FindByID(ctx context.Context, id domain.RegistrationID) (*models.Registration, error)
	FindByMemberID(ctx context.Context, memberID domain.MemberID) (*models.Registration, error)
	// List returns registrations matching the filter, ordered by submission
	// date ascending (creation date for never-submitted records).
	List(ctx context.Context, filter Filter) ([]*models.Registration, error)
	// Execute atomically runs validate then mutate against the current
	// record, holding the lock (mutex or SELECT FOR UPDATE) for the whole
	// callback pair. A validate error aborts with no mutation. Returns the
	// updated registration.
	Execute(ctx context.Context, id domain.RegistrationID,
		validate func(*models.Registration) error,
		mutate func(*models.Registration)) (*models.Registration, error)
	// CountByStatus returns per-status counts, optionally scoped to a branch.
	CountByStatus(ctx context.Context, branchID domain.BranchID) (map[models.Status]int, error)
}
