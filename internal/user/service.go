package user

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"takaful/internal/audit"
	"takaful/pkg/domain"
	dErrors "takaful/pkg/domain-errors"
	"takaful/pkg/email"
	"takaful/pkg/platform/sentinel"
	"takaful/pkg/requestcontext"
)

// AuditPublisher appends audit events with fail-closed semantics.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service owns staff account administration.
type Service struct {
	store  Store
	audit  AuditPublisher
	logger *slog.Logger
}

func NewService(store Store, audit AuditPublisher, logger *slog.Logger) *Service {
	return &Service{store: store, audit: audit, logger: logger}
}

// CreateInput carries the fields for a new staff account.
type CreateInput struct {
	FullName   string
	Email      string
	NationalID string
	Phone      string
	Role       domain.Role
	BranchID   domain.BranchID
	Password   string
}

// Create registers a staff account. Admins create any staff role; branch
// managers create employees for their own branch only.
func (s *Service) Create(ctx context.Context, actor domain.Actor, in CreateInput) (*User, error) {
	switch actor.Role {
	case domain.RoleAdmin:
		// Any staff role, any branch.
	case domain.RoleBranchManager:
		if in.Role != domain.RoleEmployee {
			return nil, dErrors.New(dErrors.CodeForbidden, "branch managers only create employees")
		}
		in.BranchID = actor.BranchID
	default:
		return nil, dErrors.New(dErrors.CodeForbidden, "role may not create staff accounts")
	}

	if in.Role == domain.RoleBeneficiary {
		return nil, dErrors.New(dErrors.CodeBadRequest, "beneficiaries register through OTP, not as staff")
	}
	if _, err := domain.ParseRole(string(in.Role)); err != nil {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown role: %s", in.Role)
	}
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "email is required")
	}
	if in.FullName == "" {
		first, last := email.DeriveNameFromEmail(in.Email)
		in.FullName = first + " " + last
	}
	if in.Role.Staff() && in.BranchID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "branch staff require a branch")
	}

	now := requestcontext.Now(ctx)
	u := &User{
		ID:         domain.NewUserID(),
		FullName:   in.FullName,
		Email:      in.Email,
		NationalID: strings.TrimSpace(in.NationalID),
		Phone:      strings.TrimSpace(in.Phone),
		Role:       in.Role,
		BranchID:   in.BranchID,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := u.SetPassword(in.Password); err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email is already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	if s.audit != nil {
		if err := s.audit.Emit(ctx, audit.Event{
			Action:    audit.ActionUserCreated,
			ActorID:   actor.ID.String(),
			ActorRole: string(actor.Role),
			BranchID:  eventBranch(u.BranchID),
			Note:      string(u.Role) + " " + u.Email,
		}); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "audit trail write failed")
		}
	}

	s.logger.InfoContext(ctx, "staff account created",
		"user_id", u.ID, "role", u.Role, "branch_id", u.BranchID)
	return u, nil
}

// Get returns one staff account.
func (s *Service) Get(ctx context.Context, id domain.UserID) (*User, error) {
	u, err := s.store.FindByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return u, nil
}

// List returns staff accounts. Branch managers are scoped to their branch.
func (s *Service) List(ctx context.Context, actor domain.Actor, branchID domain.BranchID, role domain.Role) ([]*User, error) {
	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleBranchManager:
		branchID = actor.BranchID
	default:
		return nil, dErrors.New(dErrors.CodeForbidden, "listing staff requires admin or branch manager")
	}

	out, err := s.store.List(ctx, branchID, role)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}
	return out, nil
}

// Authenticate verifies staff credentials and returns the account. Inactive
// accounts and bad credentials return the same error so login probes cannot
// distinguish them.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	invalid := dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")

	u, err := s.store.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if !u.Active || !u.CheckPassword(password) {
		return nil, invalid
	}
	return u, nil
}

// Deactivate disables a staff login without deleting review history.
func (s *Service) Deactivate(ctx context.Context, actor domain.Actor, id domain.UserID) error {
	if actor.Role != domain.RoleAdmin {
		return dErrors.New(dErrors.CodeForbidden, "only admins deactivate staff accounts")
	}
	err := s.store.SetActive(ctx, id, false)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to deactivate user")
	}
	return nil
}

func eventBranch(id domain.BranchID) string {
	if id.IsNil() {
		return ""
	}
	return id.String()
}
