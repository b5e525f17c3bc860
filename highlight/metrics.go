package highlight

import "github.com/prometheus/client_golang/prometheus"

// Metrics are optional; a Registry without them records nothing.
type Metrics struct {
	Operations     *prometheus.CounterVec
	Highlighted    prometheus.Gauge
	Pruned         prometheus.Counter
	RedrawRequests prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "highlight",
			Name:      "operations_total",
			Help:      "Highlight registry commands, partitioned by operation and outcome.",
		}, []string{"op", "outcome"}),
		Highlighted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "highlight",
			Name:      "nodes",
			Help:      "Number of node ids currently in the highlighted set.",
		}),
		Pruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "highlight",
			Name:      "pruned_total",
			Help:      "Highlighted ids dropped by reconciliation because their node left the graph.",
		}),
		RedrawRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "highlight",
			Name:      "redraw_requests_total",
			Help:      "Redraw requests emitted by bulk highlighting.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Operations, m.Highlighted, m.Pruned, m.RedrawRequests)
	}
	return m
}

func (m *Metrics) op(name, outcome string) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(name, outcome).Inc()
}

func (m *Metrics) size(n int) {
	if m == nil {
		return
	}
	m.Highlighted.Set(float64(n))
}

func (m *Metrics) pruned(n int) {
	if m == nil || n == 0 {
		return
	}
	m.Pruned.Add(float64(n))
}

func (m *Metrics) redraw() {
	if m == nil {
		return
	}
	m.RedrawRequests.Inc()
}
