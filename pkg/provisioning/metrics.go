package provisioning

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the per-run collectors. Each run owns its registry so a
// Pushgateway push only carries that run's numbers.
type Metrics struct {
	Registry *prometheus.Registry

	rowsTotal     *prometheus.CounterVec
	rejectedTotal *prometheus.CounterVec
	callsTotal    *prometheus.CounterVec
	callLatency   *prometheus.HistogramVec
}

// NewMetrics registers the collectors on reg, or on a fresh registry when reg is nil.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		rowsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "entra_provision",
			Name:      "rows_total",
			Help:      "Rows that produced a result, broken down by pipeline and status.",
		}, []string{"pipeline", "status"}),
		rejectedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "entra_provision",
			Name:      "rows_rejected_total",
			Help:      "Rows dropped before processing, broken down by reason.",
		}, []string{"pipeline", "reason"}),
		callsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "entra_provision",
			Name:      "remote_calls_total",
			Help:      "Directory calls broken down by operation and result.",
		}, []string{"operation", "result"}),
		callLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "entra_provision",
			Name:      "remote_call_duration_seconds",
			Help:      "Latency distribution for directory calls.",
			Buckets: []float64{
				0.05, 0.1, 0.25,
				0.5, 1, 2.5,
				5, 10, 30,
			},
		}, []string{"operation"}),
	}
}

func (m *Metrics) recordRow(p Pipeline, st Status) {
	m.rowsTotal.WithLabelValues(string(p), string(st)).Inc()
}

func (m *Metrics) recordRejected(p Pipeline, reason ValidationReason) {
	m.rejectedTotal.WithLabelValues(string(p), string(reason)).Inc()
}

func (m *Metrics) recordCall(op string, err error, took time.Duration) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.callsTotal.WithLabelValues(op, result).Inc()
	m.callLatency.WithLabelValues(op).Observe(took.Seconds())
}
