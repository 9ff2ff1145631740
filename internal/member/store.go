package member

import (
	"context"

	"takaful/pkg/domain"
)

// Store persists beneficiary profiles. Phone is the unique lookup key used by
// OTP login.
type Store interface {
	Create(ctx context.Context, m *Member) error
	FindByID(ctx context.Context, id domain.MemberID) (*Member, error)
	FindByPhone(ctx context.Context, phone string) (*Member, error)
	Update(ctx context.Context, m *Member) error
}
