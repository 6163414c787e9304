// Package metrics exposes Prometheus collectors for the booking workflow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	statusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "repairhub",
		Name:      "status_transitions_total",
		Help:      "Status changes applied to bookings, assignments, jobs and transport requests.",
	}, []string{"entity", "from", "to"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "repairhub",
		Name:      "http_requests_total",
		Help:      "HTTP requests served, by route and status code.",
	}, []string{"method", "route", "code"})
)

// RecordTransition counts one status change of entity
func RecordTransition(entity, from, to string) {
	statusTransitions.WithLabelValues(entity, from, to).Inc()
}

// RecordRequest counts one served HTTP request
func RecordRequest(method, route, code string) {
	httpRequests.WithLabelValues(method, route, code).Inc()
}
