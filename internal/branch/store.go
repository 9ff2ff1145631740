package branch

import (
	"context"

	"takaful/pkg/domain"
)

// Store persists branches.
type Store interface {
	Create(ctx context.Context, b *Branch) error
	FindByID(ctx context.Context, id domain.BranchID) (*Branch, error)
	// List returns branches ordered by name. With activeOnly set, inactive
	// branches are skipped (beneficiary-facing branch pickers).
	List(ctx context.Context, activeOnly bool) ([]*Branch, error)
	SetActive(ctx context.Context, id domain.BranchID, active bool) error
}
