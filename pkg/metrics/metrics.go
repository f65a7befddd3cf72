package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "neofs_trunk"

// TrunkMetrics collects the state of the trunk block registry and the
// trunk space allocator.
type TrunkMetrics struct {
	registryMetrics
	allocatorMetrics
}

// NewTrunkMetrics creates TrunkMetrics registered in the default
// prometheus registry.
func NewTrunkMetrics(version string) *TrunkMetrics {
	return NewTrunkMetricsWithRegisterer(prometheus.DefaultRegisterer, version)
}

// NewTrunkMetricsWithRegisterer creates TrunkMetrics registered in reg.
func NewTrunkMetricsWithRegisterer(reg prometheus.Registerer, version string) *TrunkMetrics {
	registry := newRegistryMetrics()
	registry.register(reg)

	allocator := newAllocatorMetrics()
	allocator.register(reg)

	registerVersion(reg, version)

	return &TrunkMetrics{
		registryMetrics:  registry,
		allocatorMetrics: allocator,
	}
}

func registerVersion(reg prometheus.Registerer, version string) {
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "version",
		Help:        "Application version.",
		ConstLabels: prometheus.Labels{"version": version},
	}, func() float64 { return 1 }))
}
