// Package metrics exposes the gateway's Prometheus metrics. Ambient
// observability is carried regardless of any feature non-goal. Grounded on
// the teacher's metrics.Registry: same prometheus.NewRegistry() plus
// Go/process collector bootstrap, generalized from HTTP/trading counters to
// the gateway's request/fallback/budget/circuit instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics and implements gateway.MetricsRecorder.
type Registry struct {
	*prometheus.Registry

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	fallbackTotal    *prometheus.CounterVec
	budgetUsageRatio prometheus.Gauge
	circuitState     *prometheus.GaugeVec
}

// circuitStates enumerates every label value circuitState can take, so a
// transition to one state explicitly zeroes the others.
var circuitStates = []string{"CLOSED", "HALF_OPEN", "OPEN"}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_requests_total",
				Help: "Total number of non-streaming completion attempts by provider and outcome",
			},
			[]string{"provider", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_request_duration_seconds",
				Help:    "Duration of a single provider attempt in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),

		fallbackTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_fallback_total",
				Help: "Total number of fallbacks from one provider to the next",
			},
			[]string{"from", "to"},
		),

		budgetUsageRatio: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "gateway_budget_usage_ratio",
				Help: "Month-to-date spend divided by monthly_limit_usd",
			},
		),

		circuitState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gateway_circuit_state",
				Help: "Budget circuit state, 1 for the currently active state and 0 otherwise",
			},
			[]string{"state"},
		),
	}

	reg.MustRegister(r.requestsTotal)
	reg.MustRegister(r.requestDuration)
	reg.MustRegister(r.fallbackTotal)
	reg.MustRegister(r.budgetUsageRatio)
	reg.MustRegister(r.circuitState)

	return r
}

// ObserveRequest records one provider attempt's outcome and latency.
func (r *Registry) ObserveRequest(provider, status string, durationSeconds float64) {
	r.requestsTotal.WithLabelValues(provider, status).Inc()
	r.requestDuration.WithLabelValues(provider).Observe(durationSeconds)
}

// ObserveFallback records one fallback hop from one provider to the next.
func (r *Registry) ObserveFallback(from, to string) {
	r.fallbackTotal.WithLabelValues(from, to).Inc()
}

// SetBudgetUsageRatio sets the current month-to-date spend ratio.
func (r *Registry) SetBudgetUsageRatio(ratio float64) {
	r.budgetUsageRatio.Set(ratio)
}

// SetCircuitState sets the active budget circuit state, zeroing every other
// known state label so only one state reads 1 at a time.
func (r *Registry) SetCircuitState(state string) {
	for _, s := range circuitStates {
		if s == state {
			r.circuitState.WithLabelValues(s).Set(1)
		} else {
			r.circuitState.WithLabelValues(s).Set(0)
		}
	}
}
