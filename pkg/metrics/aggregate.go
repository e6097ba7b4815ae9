package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AggregateHooks instruments group-order operations: latency by operation
// and outcome kind, plus a counter of lost concurrent-modification races.
type AggregateHooks struct {
	Operations *prometheus.HistogramVec
	Conflicts  *prometheus.CounterVec
}

func NewAggregateHooks(reg prometheus.Registerer) *AggregateHooks {
	ops := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "grouporder",
		Name:      "operation_duration_ms",
		Help:      "Group order operation latency in milliseconds.",
		Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	}, []string{"op", "outcome"})
	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "grouporder",
		Name:      "conflicts_total",
		Help:      "Operations rejected with a concurrent modification.",
	}, []string{"op"})

	reg.MustRegister(ops, conflicts)
	return &AggregateHooks{Operations: ops, Conflicts: conflicts}
}

func (h *AggregateHooks) ObserveOperation(op, outcome string, dur time.Duration) {
	h.Operations.WithLabelValues(op, outcome).Observe(float64(dur.Microseconds()) / 1000)
}

func (h *AggregateHooks) IncConflict(op string) {
	h.Conflicts.WithLabelValues(op).Inc()
}
