package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Search Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Total number of searches by executed strategy",
		},
		[]string{"strategy", "success"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "End-to-end search duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"strategy"},
	)

	SearchBranchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_branch_total",
			Help:      "Semantic search branch outcomes",
		},
		[]string{"branch", "outcome"}, // hits / empty / failed / retried
	)
)

var registerSearch sync.Once

// RegisterSearchMetrics registers search metrics. Safe to call more than once.
func RegisterSearchMetrics() {
	registerSearch.Do(func() {
		prometheus.MustRegister(SearchRequestsTotal, SearchDuration, SearchBranchTotal)
	})
}

// SearchRecorder feeds search outcomes into the Prometheus metrics.
type SearchRecorder struct{}

// ObserveSearch counts a finished search and its duration.
func (SearchRecorder) ObserveSearch(strategy string, success bool, elapsed time.Duration) {
	SearchRequestsTotal.WithLabelValues(strategy, strconv.FormatBool(success)).Inc()
	SearchDuration.WithLabelValues(strategy).Observe(elapsed.Seconds())
}

// ObserveBranch counts one semantic branch outcome.
func (SearchRecorder) ObserveBranch(branch, outcome string) {
	SearchBranchTotal.WithLabelValues(branch, outcome).Inc()
}
