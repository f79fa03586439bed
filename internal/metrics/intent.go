package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Intent analyzer Prometheus metrics.
var (
	IntentRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intent_requests_total",
			Help:      "Total number of intent analyzer requests",
		},
		[]string{"model", "status"},
	)

	IntentRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "intent_request_duration_seconds",
			Help:      "Intent analyzer request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"model"},
	)

	IntentTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intent_tokens_total",
			Help:      "Total intent analyzer tokens consumed",
		},
		[]string{"model", "type"}, // prompt / completion
	)

	IntentBudgetTokensRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "intent_budget_tokens_remaining",
			Help:      "Remaining intent analyzer token budget",
		},
		[]string{"period"},
	)
)

var registerIntent sync.Once

// RegisterIntentMetrics registers intent analyzer metrics. Safe to call more than once.
func RegisterIntentMetrics() {
	registerIntent.Do(func() {
		prometheus.MustRegister(
			IntentRequestsTotal,
			IntentRequestDuration,
			IntentTokensTotal,
			IntentBudgetTokensRemaining,
		)
	})
}
