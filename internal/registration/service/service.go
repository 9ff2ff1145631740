// Package service owns the registration review workflow. Every status
// mutation in the system goes through here: transition legality, note rules
// and actor scoping are all enforced server-side, regardless of which buttons
// a client chose to render.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"takaful/internal/audit"
	regmetrics "takaful/internal/registration/metrics"
	"takaful/internal/registration/models"
	"takaful/internal/registration/store"
	"takaful/internal/user"
	"takaful/pkg/domain"
	dErrors "takaful/pkg/domain-errors"
	"takaful/pkg/platform/sentinel"
	"takaful/pkg/requestcontext"
)

// AuditPublisher appends audit events with fail-closed semantics.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Directory resolves assignment targets against the staff roster. The user
// store satisfies it directly.
type Directory interface {
	FindByID(ctx context.Context, id domain.UserID) (*user.User, error)
}

// Service orchestrates the registration lifecycle.
type Service struct {
	regs    store.Store
	audit   AuditPublisher
	staff   Directory
	metrics *regmetrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

// WithMetrics sets the workflow metrics collector.
func WithMetrics(m *regmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAudit sets the audit publisher. Without one, mutations skip auditing
// (unit tests).
func WithAudit(p AuditPublisher) Option {
	return func(s *Service) { s.audit = p }
}

// WithDirectory sets the staff directory used to validate assignees.
func WithDirectory(d Directory) Option {
	return func(s *Service) { s.staff = d }
}

func New(regs store.Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		regs:   regs,
		logger: logger,
		tracer: otel.Tracer("takaful/registration"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create opens the review cycle for a freshly verified member. The record
// always starts at profile_incomplete.
func (s *Service) Create(ctx context.Context, memberID domain.MemberID, branchID domain.BranchID, snap models.Snapshot) (*models.Registration, error) {
	if memberID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "member id is required")
	}

	reg := models.NewRegistration(domain.NewRegistrationID(), memberID, branchID, snap, requestcontext.Now(ctx))
	if err := s.regs.Create(ctx, reg); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "member already has an open registration")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create registration")
	}

	if err := s.emit(ctx, audit.Event{
		Action:         audit.ActionRegistrationCreated,
		RegistrationID: reg.ID.String(),
		MemberID:       memberID.String(),
		BranchID:       reg.BranchID.String(),
		ToStatus:       string(reg.Status),
	}); err != nil {
		return nil, err
	}

	s.refreshStats(ctx, reg.BranchID)
	return reg, nil
}

// Get returns one registration, enforcing the actor's visibility scope.
func (s *Service) Get(ctx context.Context, actor domain.Actor, id domain.RegistrationID) (*models.Registration, error) {
	reg, err := s.regs.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if err := checkVisibility(actor, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// GetByMember returns the member's current registration. Beneficiary
// dashboards call this for the status view.
func (s *Service) GetByMember(ctx context.Context, actor domain.Actor, memberID domain.MemberID) (*models.Registration, error) {
	if actor.Role == domain.RoleBeneficiary && actor.MemberID != memberID {
		return nil, dErrors.New(dErrors.CodeForbidden, "beneficiaries may only view their own registration")
	}
	reg, err := s.regs.FindByMemberID(ctx, memberID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if err := checkVisibility(actor, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// List returns registrations scoped to the actor's role: employees see their
// assigned queue, branch managers their branch, admins everything.
func (s *Service) List(ctx context.Context, actor domain.Actor, filter store.Filter) ([]*models.Registration, error) {
	switch actor.Role {
	case domain.RoleAdmin:
		// Unrestricted; filter is taken as given.
	case domain.RoleBranchManager:
		filter.BranchID = actor.BranchID
	case domain.RoleEmployee:
		filter.AssignedTo = actor.ID
	default:
		return nil, dErrors.New(dErrors.CodeForbidden, "listing registrations requires a staff role")
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown status: %s", filter.Status)
	}

	regs, err := s.regs.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list registrations")
	}
	return regs, nil
}

// UpdateStatus moves a registration through the review state machine. The
// (current status, actor role, new status) tuple is validated against the
// transition table inside the store lock, so concurrent reviewers serialize
// and the loser gets a clean conflict instead of silently overwriting.
func (s *Service) UpdateStatus(ctx context.Context, actor domain.Actor, id domain.RegistrationID, to models.Status, note string) (*models.Registration, error) {
	ctx, span := s.tracer.Start(ctx, "registration.UpdateStatus",
		trace.WithAttributes(
			attribute.String("registration.id", id.String()),
			attribute.String("registration.target_status", string(to)),
			attribute.String("actor.role", string(actor.Role)),
		))
	defer span.End()
	start := time.Now()

	now := requestcontext.Now(ctx)
	var from models.Status
	reg, err := s.regs.Execute(ctx, id,
		func(r *models.Registration) error {
			if err := checkActingScope(actor, r); err != nil {
				return err
			}
			if to == models.StatusUnderEmployeeReview && r.AssignedTo.IsNil() {
				return dErrors.New(dErrors.CodeBadRequest, "assign an employee before starting employee review")
			}
			if err := r.CanTransition(actor.Role, to, note); err != nil {
				return err
			}
			from = r.Status
			return nil
		},
		func(r *models.Registration) {
			r.ApplyTransition(actor, to, note, now)
		},
	)
	if err != nil {
		s.countDenied(actor)
		return nil, wrapStoreErr(err)
	}

	if err := s.emit(ctx, audit.Event{
		Action:         audit.ActionRegistrationTransition,
		ActorID:        actor.ID.String(),
		ActorRole:      string(actor.Role),
		ActorName:      actor.Name,
		RegistrationID: reg.ID.String(),
		MemberID:       reg.MemberID.String(),
		BranchID:       reg.BranchID.String(),
		FromStatus:     string(from),
		ToStatus:       string(to),
		Note:           note,
	}); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementTransition(string(to), string(actor.Role))
		s.metrics.ObserveUpdate(start)
	}
	s.refreshStats(ctx, reg.BranchID)

	s.logger.InfoContext(ctx, "registration status changed",
		"registration_id", reg.ID,
		"from", from,
		"to", to,
		"role", actor.Role,
	)
	return reg, nil
}

// AssignToEmployee routes a registration to an employee for review. Called on
// a pending_review record it also performs the under_employee_review
// transition; on a record already in employee review it only re-routes.
func (s *Service) AssignToEmployee(ctx context.Context, actor domain.Actor, id domain.RegistrationID, employeeID domain.UserID) (*models.Registration, error) {
	if actor.Role != domain.RoleBranchManager {
		return nil, dErrors.New(dErrors.CodeForbidden, "only branch managers assign registrations")
	}
	if employeeID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "employee id is required")
	}

	now := requestcontext.Now(ctx)
	var from models.Status
	reg, err := s.regs.Execute(ctx, id,
		func(r *models.Registration) error {
			if err := checkActingScope(actor, r); err != nil {
				return err
			}
			if err := r.CanAssign(); err != nil {
				return err
			}
			if err := s.checkAssignee(ctx, actor, employeeID); err != nil {
				return err
			}
			from = r.Status
			return nil
		},
		func(r *models.Registration) {
			r.ApplyAssignment(employeeID, actor.ID, now)
			if r.Status == models.StatusPendingReview {
				r.ApplyTransition(actor, models.StatusUnderEmployeeReview, "", now)
			}
		},
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	if err := s.emit(ctx, audit.Event{
		Action:         audit.ActionRegistrationAssigned,
		ActorID:        actor.ID.String(),
		ActorRole:      string(actor.Role),
		ActorName:      actor.Name,
		RegistrationID: reg.ID.String(),
		MemberID:       reg.MemberID.String(),
		BranchID:       reg.BranchID.String(),
		FromStatus:     string(from),
		ToStatus:       string(reg.Status),
		Note:           "assigned to " + employeeID.String(),
	}); err != nil {
		return nil, err
	}

	s.refreshStats(ctx, reg.BranchID)
	return reg, nil
}

// checkAssignee verifies the target is an active employee of the manager's
// branch, so a typo'd id cannot route a registration to nobody. Without a
// directory (unit tests wiring the service alone) the id is trusted.
func (s *Service) checkAssignee(ctx context.Context, actor domain.Actor, employeeID domain.UserID) error {
	if s.staff == nil {
		return nil
	}
	emp, err := s.staff.FindByID(ctx, employeeID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeBadRequest, "assignee is not a staff account")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load assignee")
	}
	if emp.Role != domain.RoleEmployee || !emp.Active {
		return dErrors.New(dErrors.CodeBadRequest, "assignee must be an active employee")
	}
	if emp.BranchID != actor.BranchID {
		return dErrors.New(dErrors.CodeBadRequest, "assignee belongs to another branch")
	}
	return nil
}

// SetProfileCompletion records the beneficiary's profile progress and, at
// 100%, advances the registration to pending_documents.
func (s *Service) SetProfileCompletion(ctx context.Context, actor domain.Actor, id domain.RegistrationID, pct int, snap *models.Snapshot) (*models.Registration, error) {
	if actor.Role != domain.RoleBeneficiary {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the beneficiary edits their profile")
	}

	now := requestcontext.Now(ctx)
	reg, err := s.regs.Execute(ctx, id,
		func(r *models.Registration) error {
			if err := checkActingScope(actor, r); err != nil {
				return err
			}
			return r.CanSetProfileCompletion(pct)
		},
		func(r *models.Registration) {
			if snap != nil {
				r.UpdateSnapshot(*snap, now)
			}
			r.ApplyProfileCompletion(pct, now)
			if pct >= 100 {
				r.ApplyTransition(actor, models.StatusPendingDocuments, "", now)
			}
		},
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	s.refreshStats(ctx, reg.BranchID)
	return reg, nil
}

// SubmitDocuments moves a pending_documents registration into the review
// queue.
func (s *Service) SubmitDocuments(ctx context.Context, actor domain.Actor, id domain.RegistrationID) (*models.Registration, error) {
	return s.submit(ctx, actor, id, audit.ActionRegistrationTransition)
}

// Resubmit re-enters the review queue after the beneficiary addressed
// correction notes. Re-entry lands at pending_review, deterministically.
func (s *Service) Resubmit(ctx context.Context, actor domain.Actor, id domain.RegistrationID) (*models.Registration, error) {
	return s.submit(ctx, actor, id, audit.ActionRegistrationResubmitted)
}

func (s *Service) submit(ctx context.Context, actor domain.Actor, id domain.RegistrationID, action audit.Action) (*models.Registration, error) {
	if actor.Role != domain.RoleBeneficiary {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the beneficiary submits their registration")
	}

	now := requestcontext.Now(ctx)
	var from models.Status
	reg, err := s.regs.Execute(ctx, id,
		func(r *models.Registration) error {
			if err := checkActingScope(actor, r); err != nil {
				return err
			}
			if err := r.CanTransition(domain.RoleBeneficiary, models.StatusPendingReview, ""); err != nil {
				return err
			}
			from = r.Status
			return nil
		},
		func(r *models.Registration) {
			r.ApplyTransition(actor, models.StatusPendingReview, "", now)
		},
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	if err := s.emit(ctx, audit.Event{
		Action:         action,
		ActorID:        actor.ID.String(),
		ActorRole:      string(actor.Role),
		RegistrationID: reg.ID.String(),
		MemberID:       reg.MemberID.String(),
		BranchID:       reg.BranchID.String(),
		FromStatus:     string(from),
		ToStatus:       string(reg.Status),
	}); err != nil {
		return nil, err
	}

	s.refreshStats(ctx, reg.BranchID)
	return reg, nil
}

// AllowedActions lists the legal target statuses for the actor on the given
// registration. Review surfaces render exactly these as buttons.
func (s *Service) AllowedActions(reg *models.Registration, actor domain.Actor) []models.Status {
	if checkActingScope(actor, reg) != nil {
		return nil
	}
	return models.AllowedTargets(reg.Status, actor.Role)
}

// checkVisibility gates read access per role.
func checkVisibility(actor domain.Actor, reg *models.Registration) error {
	switch actor.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleBranchManager:
		if reg.BranchID == actor.BranchID {
			return nil
		}
	case domain.RoleEmployee:
		if reg.BranchID == actor.BranchID {
			return nil
		}
	case domain.RoleBeneficiary:
		if reg.MemberID == actor.MemberID {
			return nil
		}
	}
	return dErrors.New(dErrors.CodeForbidden, "registration is outside your scope")
}

// checkActingScope gates mutations: employees act only on registrations
// assigned to them, branch managers only within their branch, beneficiaries
// only on their own record. Admins administer, they do not review.
func checkActingScope(actor domain.Actor, reg *models.Registration) error {
	switch actor.Role {
	case domain.RoleBranchManager:
		if reg.BranchID == actor.BranchID {
			return nil
		}
		return dErrors.New(dErrors.CodeForbidden, "registration belongs to another branch")
	case domain.RoleEmployee:
		if reg.AssignedTo == actor.ID {
			return nil
		}
		return dErrors.New(dErrors.CodeForbidden, "registration is not assigned to you")
	case domain.RoleBeneficiary:
		if reg.MemberID == actor.MemberID {
			return nil
		}
		return dErrors.New(dErrors.CodeForbidden, "registration belongs to another member")
	default:
		return dErrors.New(dErrors.CodeForbidden, "role may not act on registrations")
	}
}

func (s *Service) emit(ctx context.Context, event audit.Event) error {
	if s.audit == nil {
		return nil
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "audit trail write failed")
	}
	return nil
}

func (s *Service) countDenied(actor domain.Actor) {
	if s.metrics != nil {
		s.metrics.IncrementDenied(string(actor.Role))
	}
}

// refreshStats redraws the per-branch backlog gauges after a mutation. This
// is the backend analog of the dashboards' stats-refresh callback and is
// best-effort: a count failure never fails the mutation that triggered it.
func (s *Service) refreshStats(ctx context.Context, branchID domain.BranchID) {
	if s.metrics == nil {
		return
	}
	counts, err := s.regs.CountByStatus(ctx, branchID)
	if err != nil {
		s.logger.WarnContext(ctx, "stats refresh failed", "branch_id", branchID, "error", err)
		return
	}
	for status, n := range counts {
		s.metrics.SetStatusCount(branchID.String(), string(status), n)
	}
}

func wrapStoreErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "registration not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "registration was modified concurrently, retry")
	default:
		var de *dErrors.Error
		if errors.As(err, &de) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "registration store failure")
	}
}
