package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registration workflow. Transition
// counts are labeled by target status and acting role; the backlog gauge is
// what the role dashboards redraw from after every mutation.
type Metrics struct {
	TransitionsTotal      *prometheus.CounterVec
	TransitionsDenied     *prometheus.CounterVec
	UpdateDuration        prometheus.Histogram
	RegistrationsByStatus *prometheus.GaugeVec
}

// New creates a Metrics instance with all workflow metrics registered.
func New() *Metrics {
	return &Metrics{
		TransitionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "takaful_registration_transitions_total",
			Help: "Successful registration status transitions",
		}, []string{"to", "role"}),
		TransitionsDenied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "takaful_registration_transitions_denied_total",
			Help: "Status transitions rejected by the legality table or note rules",
		}, []string{"role"}),
		UpdateDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "takaful_registration_update_duration_seconds",
			Help:    "Duration of UpdateStatus operations (review critical path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		RegistrationsByStatus: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "takaful_registrations_by_status",
			Help: "Current registration count per branch and status",
		}, []string{"branch", "status"}),
	}
}

// IncrementTransition records a successful transition.
func (m *Metrics) IncrementTransition(to, role string) {
	m.TransitionsTotal.WithLabelValues(to, role).Inc()
}

// IncrementDenied records a rejected transition attempt.
func (m *Metrics) IncrementDenied(role string) {
	m.TransitionsDenied.WithLabelValues(role).Inc()
}

// ObserveUpdate records the duration of an UpdateStatus operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveUpdate(start time.Time) {
	m.UpdateDuration.Observe(time.Since(start).Seconds())
}

// SetStatusCount refreshes one cell of the per-branch backlog gauge.
func (m *Metrics) SetStatusCount(branch, status string, n int) {
	m.RegistrationsByStatus.WithLabelValues(branch, status).Set(float64(n))
}
