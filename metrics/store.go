package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultInvalid  = "invalid"
	ResultError    = "error"
)

// StoreMetrics counts proof store operations and their latency.
type StoreMetrics struct {
	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewStoreMetrics registers the store collectors with reg.
func NewStoreMetrics(namespace string, reg prometheus.Registerer) (*StoreMetrics, error) {
	m := &StoreMetrics{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "proofstore",
			Name:      "ops_total",
			Help:      "Proof store operations by result.",
		}, []string{"op", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "proofstore",
			Name:      "op_duration_seconds",
			Help:      "Proof store operation latency.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"op"}),
	}

	for _, c := range []prometheus.Collector{m.ops, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Observe records one operation. A nil receiver is a no-op.
func (m *StoreMetrics) Observe(op, result string, started time.Time) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(op, result).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}
