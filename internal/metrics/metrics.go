// Package metrics exposes Prometheus instrumentation for the API.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the application collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	ledgerOps        *prometheus.CounterVec
	invitations      *prometheus.CounterVec
	upstreamFailures *prometheus.CounterVec
	requests         *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
}

// New registers the collectors on reg. With a nil registerer the returned
// value records nothing.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}

	ledgerOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pantryhub_ledger_operations_total",
		Help: "Quantity ledger mutations by operation and result.",
	}, []string{"operation", "result"})
	invitations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pantryhub_invitations_total",
		Help: "Household invitation transitions.",
	}, []string{"event"})
	upstreamFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pantryhub_upstream_failures_total",
		Help: "Failed calls to external collaborators.",
	}, []string{"collaborator"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pantryhub_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})
	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pantryhub_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	reg.MustRegister(ledgerOps, invitations, upstreamFailures, requests, requestDuration)
	return &Metrics{
		ledgerOps:        ledgerOps,
		invitations:      invitations,
		upstreamFailures: upstreamFailures,
		requests:         requests,
		requestDuration:  requestDuration,
	}
}

// LedgerOp counts a ledger mutation.
func (m *Metrics) LedgerOp(operation string, err error) {
	if m == nil || m.ledgerOps == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ledgerOps.WithLabelValues(label(operation), result).Inc()
}

// Invitation counts an invitation event such as created or accepted.
func (m *Metrics) Invitation(event string) {
	if m == nil || m.invitations == nil {
		return
	}
	m.invitations.WithLabelValues(label(event)).Inc()
}

// UpstreamFailure counts a failed external call.
func (m *Metrics) UpstreamFailure(collaborator string) {
	if m == nil || m.upstreamFailures == nil {
		return
	}
	m.upstreamFailures.WithLabelValues(label(collaborator)).Inc()
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	route = label(route)
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func label(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
