// Package handler wires branch endpoints. Listing is open to any
// authenticated actor (the registration branch picker); creation and
// deactivation are admin endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"takaful/internal/branch"
	"takaful/pkg/domain"
	dErrors "takaful/pkg/domain-errors"
	"takaful/pkg/platform/httputil"
	"takaful/pkg/requestcontext"
)

// Service defines the interface for branch operations.
type Service interface {
	Create(ctx context.Context, actor domain.Actor, name, city, phone string) (*branch.Branch, error)
	Get(ctx context.Context, id domain.BranchID) (*branch.Branch, error)
	List(ctx context.Context, actor domain.Actor) ([]*branch.Branch, error)
	Deactivate(ctx context.Context, actor domain.Actor, id domain.BranchID) error
}

// Handler wires branch endpoints to the branch service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the read endpoints available to all authenticated actors.
func (h *Handler) Register(r chi.Router) {
	r.Get("/branches", h.HandleList)
	r.Get("/branches/{id}", h.HandleGet)
}

// RegisterAdmin mounts the admin endpoints. The router guards the group.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/branches", h.HandleCreate)
	r.Delete("/branches/{id}", h.HandleDeactivate)
}

// CreateRequest is the HTTP request body for POST /branches.
type CreateRequest struct {
	Name  string `json:"name"`
	City  string `json:"city"`
	Phone string `json:"phone"`
}

func (r *CreateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "name is required")
	}
	return nil
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := requestcontext.Actor(ctx)
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	b, err := h.service.Create(ctx, actor, req.Name, req.City, req.Phone)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, b)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	branches, err := h.service.List(ctx, requestcontext.Actor(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"branches": branches,
		"total":    len(branches),
	})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseBranchID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "branch id must be a valid UUID"))
		return
	}

	b, err := h.service.Get(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseBranchID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "branch id must be a valid UUID"))
		return
	}

	if err := h.service.Deactivate(ctx, requestcontext.Actor(ctx), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
