package branch

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"takaful/internal/audit"
	"takaful/pkg/domain"
	dErrors "takaful/pkg/domain-errors"
	"takaful/pkg/platform/sentinel"
	"takaful/pkg/requestcontext"
)

// AuditPublisher appends audit events with fail-closed semantics.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service owns branch administration.
type Service struct {
	store  Store
	audit  AuditPublisher
	logger *slog.Logger
}

func NewService(store Store, audit AuditPublisher, logger *slog.Logger) *Service {
	return &Service{store: store, audit: audit, logger: logger}
}

// Create registers a new branch. Admin only.
func (s *Service) Create(ctx context.Context, actor domain.Actor, name, city, phone string) (*Branch, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "only admins create branches")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "branch name is required")
	}

	b := New(name, strings.TrimSpace(city), strings.TrimSpace(phone), requestcontext.Now(ctx))
	if err := s.store.Create(ctx, b); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create branch")
	}

	if s.audit != nil {
		if err := s.audit.Emit(ctx, audit.Event{
			Action:    audit.ActionBranchCreated,
			ActorID:   actor.ID.String(),
			ActorRole: string(actor.Role),
			BranchID:  b.ID.String(),
			Note:      name,
		}); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "audit trail write failed")
		}
	}

	s.logger.InfoContext(ctx, "branch created", "branch_id", b.ID, "name", name)
	return b, nil
}

// Get returns one branch.
func (s *Service) Get(ctx context.Context, id domain.BranchID) (*Branch, error) {
	b, err := s.store.FindByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "branch not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load branch")
	}
	return b, nil
}

// List returns branches. Staff see all branches; everyone else gets only
// active ones (the registration branch picker).
func (s *Service) List(ctx context.Context, actor domain.Actor) ([]*Branch, error) {
	activeOnly := actor.Role != domain.RoleAdmin && !actor.Role.Staff()
	out, err := s.store.List(ctx, activeOnly)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list branches")
	}
	return out, nil
}

// Deactivate retires a branch from the picker without deleting its history.
func (s *Service) Deactivate(ctx context.Context, actor domain.Actor, id domain.BranchID) error {
	if actor.Role != domain.RoleAdmin {
		return dErrors.New(dErrors.CodeForbidden, "only admins deactivate branches")
	}
	err := s.store.SetActive(ctx, id, false)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "branch not found")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to deactivate branch")
	}
	return nil
}
