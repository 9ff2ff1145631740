package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	dErrors "takaful/pkg/domain-errors"
	"takaful/pkg/platform/httputil"
	"takaful/pkg/platform/middleware/clientmeta"
)

// Middleware throttles requests per client IP. A store failure fails open:
// losing the throttle is better than losing logins.
type Middleware struct {
	store     Store
	logger    *slog.Logger
	throttled *prometheus.CounterVec
}

func NewMiddleware(store Store, logger *slog.Logger) *Middleware {
	return &Middleware{
		store:  store,
		logger: logger,
		throttled: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "takaful_ratelimit_throttled_total",
			Help: "Requests rejected by the rate limiter, by route class.",
		}, []string{"class"}),
	}
}

// Limit returns a chi middleware admitting at most limit requests per window
// per client IP. The class names the route group in logs and metrics.
func (m *Middleware) Limit(class string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := class + ":" + clientmeta.ClientIP(r)

			res, err := m.store.Allow(ctx, key, limit, window)
			if err != nil {
				m.logger.ErrorContext(ctx, "rate limit check failed", "class", class, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed {
				m.throttled.WithLabelValues(class).Inc()
				retryAfter := max(int(time.Until(res.ResetAt).Seconds()), 1)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests, slow down"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
