// Package metrics exposes Prometheus collectors for schedule computation.
package metrics

import (
	"errors"

	"github.com/iwvelando/finance-schedule/pkg/loans"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SchedulesGenerated counts schedule computations by modality and outcome.
	SchedulesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finance_schedule_generated_total",
			Help: "Schedule computations by modality and status",
		},
		[]string{"modality", "status"},
	)

	// CacheLookups counts memoization lookups by result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finance_schedule_cache_lookups_total",
			Help: "Schedule cache lookups by result",
		},
		[]string{"result"},
	)

	// DegenerateWarnings counts schedules that left principal unallocated.
	DegenerateWarnings = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "finance_schedule_degenerate_warnings_total",
			Help: "Warnings about principal left unallocated",
		},
	)

	// HTTPRequests counts API calls by endpoint and status code.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finance_schedule_http_requests_total",
			Help: "API requests by endpoint and status code",
		},
		[]string{"endpoint", "code"},
	)

	// GenerationSeconds observes engine latency.
	GenerationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "finance_schedule_generation_seconds",
			Help:    "Time spent computing one schedule",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
	)
)

// Status labels.
const (
	StatusOK             = "ok"
	StatusInvalid        = "invalid"
	StatusOversubscribed = "oversubscribed"
	StatusError          = "error"
)

// StatusFor maps a schedule computation error onto a status label.
func StatusFor(err error) string {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, loans.ErrInvalidTerms):
		return StatusInvalid
	case errors.Is(err, loans.ErrOverSubscribed):
		return StatusOversubscribed
	default:
		return StatusError
	}
}
