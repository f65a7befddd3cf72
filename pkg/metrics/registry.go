package metrics

import "github.com/prometheus/client_golang/prometheus"

const registrySubsystem = "registry"

type registryMetrics struct {
	groups    prometheus.Gauge
	blocks    prometheus.Gauge
	conflicts prometheus.Counter
}

func newRegistryMetrics() registryMetrics {
	return registryMetrics{
		groups: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: registrySubsystem,
			Name:      "trunk_files",
			Help:      "Number of trunk files with tracked blocks",
		}),
		blocks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: registrySubsystem,
			Name:      "blocks",
			Help:      "Number of tracked blocks",
		}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: registrySubsystem,
			Name:      "conflicts_total",
			Help:      "Number of rejected overlapping or duplicate blocks",
		}),
	}
}

func (m registryMetrics) register(reg prometheus.Registerer) {
	reg.MustRegister(m.groups)
	reg.MustRegister(m.blocks)
	reg.MustRegister(m.conflicts)
}

func (m registryMetrics) SetGroupCount(n int) {
	m.groups.Set(float64(n))
}

func (m registryMetrics) SetBlockCount(n int) {
	m.blocks.Set(float64(n))
}

func (m registryMetrics) IncConflicts() {
	m.conflicts.Inc()
}
