// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the HTTP and domain collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	Loans         *prometheus.CounterVec
	FinesAssessed prometheus.Counter
	Registrations *prometheus.CounterVec
	Notifications *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ngolib",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ngolib",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		Loans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ngolib",
			Name:      "loan_operations_total",
			Help:      "Lending operations by kind and outcome.",
		}, []string{"operation", "outcome"}),
		FinesAssessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ngolib",
			Name:      "fines_assessed_total",
			Help:      "Sum of fines assessed on returns.",
		}),
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ngolib",
			Name:      "event_registrations_total",
			Help:      "Event registration attempts by outcome.",
		}, []string{"outcome"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ngolib",
			Name:      "notifications_total",
			Help:      "Notification deliveries by type and outcome.",
		}, []string{"type", "outcome"}),
	}

	reg.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.Loans,
		m.FinesAssessed,
		m.Registrations,
		m.Notifications,
	)
	return m
}

func (m *Metrics) LoanOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.Loans.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) FineAssessed(amount float64) {
	if m == nil || amount <= 0 {
		return
	}
	m.FinesAssessed.Add(amount)
}

func (m *Metrics) Registration(outcome string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Notification(kind, outcome string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(kind, outcome).Inc()
}
