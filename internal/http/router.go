// Package httpapi assembles the HTTP surface: public login routes, the
// role-guarded feature routers and the operational endpoints. Authorization
// is layered, the route guard checks the role and the services re-check
// record-level scope.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhandler "takaful/internal/auth/handler"
	branchhandler "takaful/internal/branch/handler"
	memberhandler "takaful/internal/member/handler"
	"takaful/internal/ratelimit"
	reghandler "takaful/internal/registration/handler"
	"takaful/internal/stats"
	userhandler "takaful/internal/user/handler"
	"takaful/pkg/domain"
	authmw "takaful/pkg/platform/middleware/auth"
	"takaful/pkg/platform/middleware/clientmeta"
	"takaful/pkg/platform/middleware/requestid"
	"takaful/pkg/platform/middleware/requesttime"
)

// Deps carries the wired handlers and the token verifier.
type Deps struct {
	Logger        *slog.Logger
	Verifier      authmw.TokenVerifier
	RateLimiter   *ratelimit.Middleware
	Auth          *authhandler.Handler
	Registrations *reghandler.Handler
	Members       *memberhandler.Handler
	Branches      *branchhandler.Handler
	Users         *userhandler.Handler
	Stats         *stats.Handler
	Health        func() error
}

// NewRouter builds the full route tree.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(clientmeta.Middleware)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Get("/healthz", healthHandler(deps.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Public login routes, throttled per client IP.
	r.Group(func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Limit("auth", 10, time.Minute))
		}
		deps.Auth.Register(r)
	})

	requireAuth := authmw.RequireAuth(deps.Verifier, deps.Logger)

	// Any authenticated actor: the branch picker.
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		deps.Branches.Register(r)
	})

	// Review side: staff roles only.
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(authmw.RequireRole(deps.Logger,
			domain.RoleAdmin, domain.RoleBranchManager, domain.RoleEmployee))
		deps.Registrations.RegisterStaff(r)
		deps.Stats.Register(r)
	})

	// Beneficiary side: own registration and profile.
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(authmw.RequireRole(deps.Logger, domain.RoleBeneficiary))
		deps.Registrations.RegisterBeneficiary(r)
		deps.Members.Register(r)
	})

	// Staff administration: admins plus branch managers creating employees.
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(authmw.RequireRole(deps.Logger, domain.RoleAdmin, domain.RoleBranchManager))
		deps.Users.Register(r)
	})

	// Branch administration: admin only.
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(authmw.RequireRole(deps.Logger, domain.RoleAdmin))
		deps.Branches.RegisterAdmin(r)
	})

	return r
}

func healthHandler(check func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
