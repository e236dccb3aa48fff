package escrow

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts escrow operations.
type Metrics struct {
	transitions *prometheus.CounterVec
	failures    *prometheus.CounterVec
}

// NewMetrics creates the escrow counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "custody",
			Subsystem: "escrow",
			Name:      "transitions_total",
			Help:      "Count of successful escrow operations by resulting state.",
		}, []string{"op", "state"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "custody",
			Subsystem: "escrow",
			Name:      "failures_total",
			Help:      "Count of rejected escrow operations.",
		}, []string{"op"}),
	}
	reg.MustRegister(m.transitions, m.failures)
	return m
}

func (m *Metrics) transition(op string, s State) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(op, s.String()).Inc()
}

func (m *Metrics) failure(op string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(op).Inc()
}
