package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels shared by the client and the cart store.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics groups the collectors of the cart client. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	mutations       *prometheus.CounterVec
	staleResponses  *prometheus.CounterVec
	vendorConflicts prometheus.Counter
	sessions        prometheus.Gauge
}

// New registers the collectors on reg. A nil registerer yields a no-op value.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}

	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fooddelivery_client_requests_total",
			Help: "Requests sent to the food delivery backend by endpoint and outcome.",
		}, []string{"endpoint", "outcome", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fooddelivery_client_request_duration_seconds",
			Help:    "Latency of requests sent to the food delivery backend.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cart_mutations_total",
			Help: "Cart store mutations by operation and outcome.",
		}, []string{"op", "outcome"}),
		staleResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cart_stale_responses_total",
			Help: "Cart responses discarded because a newer snapshot was already applied.",
		}, []string{"op"}),
		vendorConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cart_vendor_conflicts_total",
			Help: "Add attempts rejected because the cart holds another restaurant's dishes.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cart_sessions_open",
			Help: "Cart sessions currently open.",
		}),
	}

	reg.MustRegister(
		m.requests,
		m.requestDuration,
		m.mutations,
		m.staleResponses,
		m.vendorConflicts,
		m.sessions,
	)
	return m
}

// ObserveRequest records one backend call.
func (m *Metrics) ObserveRequest(endpoint, outcome, code string, d time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	m.requests.WithLabelValues(normalizeLabel(endpoint), outcome, code).Inc()
	m.requestDuration.WithLabelValues(normalizeLabel(endpoint)).Observe(d.Seconds())
}

func (m *Metrics) IncMutation(op, outcome string) {
	if m == nil || m.mutations == nil {
		return
	}
	m.mutations.WithLabelValues(normalizeLabel(op), outcome).Inc()
}

func (m *Metrics) IncStaleResponse(op string) {
	if m == nil || m.staleResponses == nil {
		return
	}
	m.staleResponses.WithLabelValues(normalizeLabel(op)).Inc()
}

func (m *Metrics) IncVendorConflict() {
	if m == nil || m.vendorConflicts == nil {
		return
	}
	m.vendorConflicts.Inc()
}

func (m *Metrics) SessionOpened() {
	if m == nil || m.sessions == nil {
		return
	}
	m.sessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil || m.sessions == nil {
		return
	}
	m.sessions.Dec()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
