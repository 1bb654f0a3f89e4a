package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts store operations by outcome. A nil *Metrics records nothing.
type Metrics struct {
	Operations *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "feedflow",
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Store operations by operation name and result (ok or error kind).",
		}, []string{"op", "result"}),
	}
	if reg != nil {
		reg.MustRegister(m.Operations)
	}
	return m
}

func (m *Metrics) Observe(op, result string) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(op, result).Inc()
}
