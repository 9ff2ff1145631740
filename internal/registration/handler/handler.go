// Package handler wires the registration workflow endpoints. Staff routes
// (queue, review actions, assignment) and beneficiary routes (own status,
// profile, submission) are registered separately so the router can guard them
// with different role requirements.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"takaful/internal/registration/models"
	"takaful/internal/registration/store"
	"takaful/pkg/domain"
	dErrors "takaful/pkg/domain-errors"
	"takaful/pkg/platform/httputil"
	"takaful/pkg/requestcontext"
)

// Service defines the interface for registration workflow operations.
type Service interface {
	Get(ctx context.Context, actor domain.Actor, id domain.RegistrationID) (*models.Registration, error)
	GetByMember(ctx context.Context, actor domain.Actor, memberID domain.MemberID) (*models.Registration, error)
	List(ctx context.Context, actor domain.Actor, filter store.Filter) ([]*models.Registration, error)
	UpdateStatus(ctx context.Context, actor domain.Actor, id domain.RegistrationID, to models.Status, note string) (*models.Registration, error)
	AssignToEmployee(ctx context.Context, actor domain.Actor, id domain.RegistrationID, employeeID domain.UserID) (*models.Registration, error)
	SubmitDocuments(ctx context.Context, actor domain.Actor, id domain.RegistrationID) (*models.Registration, error)
	Resubmit(ctx context.Context, actor domain.Actor, id domain.RegistrationID) (*models.Registration, error)
	AllowedActions(reg *models.Registration, actor domain.Actor) []models.Status
}

// Handler wires registration endpoints to the workflow service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a registration handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterStaff mounts the review-side endpoints. The router guards the group
// with staff-role auth.
func (h *Handler) RegisterStaff(r chi.Router) {
	r.Get("/registrations", h.HandleList)
	r.Get("/registrations/{id}", h.HandleGet)
	r.Patch("/registrations/{id}/status", h.HandleUpdateStatus)
	r.Post("/registrations/{id}/assign", h.HandleAssign)
}

// RegisterBeneficiary mounts the beneficiary-side endpoints. The router guards
// the group with beneficiary auth.
func (h *Handler) RegisterBeneficiary(r chi.Router) {
	r.Get("/registrations/me", h.HandleGetOwn)
	r.Post("/registrations/me/submit", h.HandleSubmit)
	r.Post("/registrations/me/resubmit", h.HandleResubmit)
}

// HandleList handles GET /registrations. Query parameters: status, search,
// branch_id (admin only, others are scoped server-side).
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := requestcontext.Actor(ctx)

	filter := store.Filter{
		Status: models.Status(r.URL.Query().Get("status")),
		Search: r.URL.Query().Get("search"),
	}
	if raw := r.URL.Query().Get("branch_id"); raw != "" {
		branchID, err := domain.ParseBranchID(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "branch_id must be a valid UUID"))
			return
		}
		filter.BranchID = branchID
	}

	regs, err := h.service.List(ctx, actor, filter)
	if err != nil {
		h.logError(ctx, "failed to list registrations", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromRegistrations(regs, func(reg *models.Registration) []models.Status {
		return h.service.AllowedActions(reg, actor)
	}))
}

// HandleGet handles GET /registrations/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := requestcontext.Actor(ctx)

	id, ok := h.registrationID(w, r)
	if !ok {
		return
	}

	reg, err := h.service.Get(ctx, actor, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRegistration(reg, h.service.AllowedActions(reg, actor)))
}

// HandleUpdateStatus handles PATCH /registrations/{id}/status, the review
// action endpoint.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := requestcontext.Actor(ctx)
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	id, ok := h.registrationID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateStatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	reg, err := h.service.UpdateStatus(ctx, actor, id, req.ParsedStatus(), req.Note)
	if err != nil {
		h.logger.WarnContext(ctx, "status update rejected",
			"request_id", requestID,
			"registration_id", id,
			"target_status", req.Status,
			"role", actor.Role,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "status updated",
		"request_id", requestID,
		"registration_id", id,
		"status", reg.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromRegistration(reg, h.service.AllowedActions(reg, actor)))
}

// HandleAssign handles POST /registrations/{id}/assign.
func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := requestcontext.Actor(ctx)
	requestID := requestcontext.RequestID(ctx)

	id, ok := h.registrationID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AssignRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	reg, err := h.service.AssignToEmployee(ctx, actor, id, req.ParsedEmployeeID())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRegistration(reg, h.service.AllowedActions(reg, actor)))
}

// HandleGetOwn handles GET /registrations/me.
func (h *Handler) HandleGetOwn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := requestcontext.Actor(ctx)

	reg, err := h.service.GetByMember(ctx, actor, actor.MemberID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRegistration(reg, h.service.AllowedActions(reg, actor)))
}

// HandleSubmit handles POST /registrations/me/submit.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, h.service.SubmitDocuments)
}

// HandleResubmit handles POST /registrations/me/resubmit.
func (h *Handler) HandleResubmit(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, h.service.Resubmit)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request,
	op func(context.Context, domain.Actor, domain.RegistrationID) (*models.Registration, error)) {

	ctx := r.Context()
	actor := requestcontext.Actor(ctx)

	reg, err := h.service.GetByMember(ctx, actor, actor.MemberID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	updated, err := op(ctx, actor, reg.ID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRegistration(updated, h.service.AllowedActions(updated, actor)))
}

func (h *Handler) registrationID(w http.ResponseWriter, r *http.Request) (domain.RegistrationID, bool) {
	id, err := domain.ParseRegistrationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "registration id must be a valid UUID"))
		return domain.RegistrationID{}, false
	}
	return id, true
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}
