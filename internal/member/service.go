package member

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"takaful/pkg/domain"
	dErrors "takaful/pkg/domain-errors"
	"takaful/pkg/platform/sentinel"
	"takaful/pkg/requestcontext"
)

// Service owns beneficiary profile management.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// RegisterOrGet returns the member for a verified phone number, creating a
// bare profile on first contact. The second return reports whether the member
// was just created.
func (s *Service) RegisterOrGet(ctx context.Context, phone string) (*Member, bool, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, false, dErrors.New(dErrors.CodeBadRequest, "phone is required")
	}

	m, err := s.store.FindByPhone(ctx, phone)
	if err == nil {
		return m, false, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member")
	}

	m = New(phone, requestcontext.Now(ctx))
	if err := s.store.Create(ctx, m); err != nil {
		// Lost a race with a concurrent first login for the same phone.
		if errors.Is(err, sentinel.ErrConflict) {
			existing, ferr := s.store.FindByPhone(ctx, phone)
			if ferr == nil {
				return existing, false, nil
			}
		}
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create member")
	}

	s.logger.InfoContext(ctx, "member created", "member_id", m.ID)
	return m, true, nil
}

// Get returns one member. Beneficiaries only see themselves.
func (s *Service) Get(ctx context.Context, actor domain.Actor, id domain.MemberID) (*Member, error) {
	if actor.Role == domain.RoleBeneficiary && actor.MemberID != id {
		return nil, dErrors.New(dErrors.CodeForbidden, "beneficiaries may only view their own profile")
	}
	m, err := s.store.FindByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "member not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member")
	}
	return m, nil
}

// ProfileInput carries the editable profile fields. Phone is absent by
// design: it is the login key and never changes.
type ProfileInput struct {
	FullName          string
	NationalID        string
	Email             string
	City              string
	DisabilityType    string
	EmploymentStatus  string
	PreferredBranchID domain.BranchID
}

// UpdateProfile overwrites the member's editable fields and returns the
// updated profile. Completion is recomputed from the stored fields, never
// trusted from the client.
func (s *Service) UpdateProfile(ctx context.Context, actor domain.Actor, in ProfileInput) (*Member, error) {
	if actor.Role != domain.RoleBeneficiary || actor.MemberID.IsNil() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only beneficiaries edit their profile")
	}

	m, err := s.store.FindByID(ctx, actor.MemberID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "member not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member")
	}

	m.FullName = strings.TrimSpace(in.FullName)
	m.NationalID = strings.TrimSpace(in.NationalID)
	m.Email = strings.TrimSpace(in.Email)
	m.City = strings.TrimSpace(in.City)
	m.DisabilityType = strings.TrimSpace(in.DisabilityType)
	m.EmploymentStatus = strings.TrimSpace(in.EmploymentStatus)
	m.PreferredBranchID = in.PreferredBranchID
	m.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, m); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "national id is already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update member")
	}
	return m, nil
}
