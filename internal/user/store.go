package user

import (
	"context"

	"takaful/pkg/domain"
)

// Store persists staff accounts. Email is the unique login key.
type Store interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id domain.UserID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	// List returns users filtered by branch and role; zero values mean no
	// filter. Ordered by full name.
	List(ctx context.Context, branchID domain.BranchID, role domain.Role) ([]*User, error)
	SetActive(ctx context.Context, id domain.UserID, active bool) error
}
