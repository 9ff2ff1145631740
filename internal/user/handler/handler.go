// Package handler wires staff administration endpoints. The router guards the
// group with admin or branch manager auth; finer scoping happens in the
// service.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"takaful/internal/user"
	"takaful/pkg/domain"
	dErrors "takaful/pkg/domain-errors"
	"takaful/pkg/platform/httputil"
	"takaful/pkg/requestcontext"
)

// Service defines the interface for staff account operations.
type Service interface {
	Create(ctx context.Context, actor domain.Actor, in user.CreateInput) (*user.User, error)
	Get(ctx context.Context, id domain.UserID) (*user.User, error)
	List(ctx context.Context, actor domain.Actor, branchID domain.BranchID, role domain.Role) ([]*user.User, error)
	Deactivate(ctx context.Context, actor domain.Actor, id domain.UserID) error
}

// Handler wires staff endpoints to the user service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the staff administration routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/users", h.HandleCreate)
	r.Get("/users", h.HandleList)
	r.Get("/users/{id}", h.HandleGet)
	r.Delete("/users/{id}", h.HandleDeactivate)
}

// CreateRequest is the HTTP request body for POST /users.
type CreateRequest struct {
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	NationalID string `json:"national_id"`
	Phone      string `json:"phone"`
	Role       string `json:"role"`
	BranchID   string `json:"branch_id"`
	Password   string `json:"password"`

	parsedRole     domain.Role
	parsedBranchID domain.BranchID
}

func (r *CreateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.FullName) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "full_name is required")
	}
	if strings.TrimSpace(r.Email) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "email is required")
	}

	role, err := domain.ParseRole(strings.TrimSpace(r.Role))
	if err != nil {
		return dErrors.Newf(dErrors.CodeBadRequest, "unknown role: %s", r.Role)
	}
	r.parsedRole = role

	if raw := strings.TrimSpace(r.BranchID); raw != "" {
		branchID, err := domain.ParseBranchID(raw)
		if err != nil {
			return dErrors.New(dErrors.CodeBadRequest, "branch_id must be a valid UUID")
		}
		r.parsedBranchID = branchID
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

	u, err := h.service.Create(ctx, actor, user.CreateInput{
		FullName:   req.FullName,
		Email:      req.Email,
		NationalID: req.NationalID,
		Phone:      req.Phone,
		Role:       req.parsedRole,
		BranchID:   req.parsedBranchID,
		Password:   req.Password,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, u)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := requestcontext.Actor(ctx)

	var branchID domain.BranchID
	if raw := r.URL.Query().Get("branch_id"); raw != "" {
		parsed, err := domain.ParseBranchID(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "branch_id must be a valid UUID"))
			return
		}
		branchID = parsed
	}
	var role domain.Role
	if raw := r.URL.Query().Get("role"); raw != "" {
		parsed, err := domain.ParseRole(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.Newf(dErrors.CodeBadRequest, "unknown role: %s", raw))
			return
		}
		role = parsed
	}

	users, err := h.service.List(ctx, actor, branchID, role)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"users": users,
		"total": len(users),
	})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "user id must be a valid UUID"))
		return
	}

	u, err := h.service.Get(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "user id must be a valid UUID"))
		return
	}

	if err := h.service.Deactivate(ctx, requestcontext.Actor(ctx), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
