package stats

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"takaful/pkg/domain"
	dErrors "takaful/pkg/domain-errors"
	"takaful/pkg/platform/httputil"
	"takaful/pkg/requestcontext"
)

// Handler wires the dashboard endpoints.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the stats routes. The router guards the group with staff
// auth.
func (h *Handler) Register(r chi.Router) {
	r.Get("/stats/branch", h.HandleBranch)
	r.Get("/stats/overview", h.HandleOverview)
}

// HandleBranch handles GET /stats/branch?branch_id=... (branch_id is admin
// only; staff are scoped to their own branch).
func (h *Handler) HandleBranch(w http.ResponseWriter, r *http.Request) {
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

	stats, err := h.service.ForBranch(ctx, actor, branchID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// HandleOverview handles GET /stats/overview.
func (h *Handler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	overview, err := h.service.Overview(ctx, requestcontext.Actor(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, overview)
}
