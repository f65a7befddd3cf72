package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	allocatorSubsystem = "allocator"

	storePathLabelKey = "store_path"
	resultLabelKey    = "result"
)

type allocatorMetrics struct {
	freeSpace   *prometheus.GaugeVec
	allocations *prometheus.CounterVec
	trunkFiles  prometheus.Counter
}

func newAllocatorMetrics() allocatorMetrics {
	var (
		freeSpace = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: allocatorSubsystem,
			Name:      "free_space",
			Help:      "Free trunk space in bytes",
		}, []string{storePathLabelKey})

		allocations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: allocatorSubsystem,
			Name:      "allocations_total",
			Help:      "Number of trunk space allocations by result",
		}, []string{resultLabelKey})

		trunkFiles = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: allocatorSubsystem,
			Name:      "trunk_files_created_total",
			Help:      "Number of trunk files created to satisfy allocations",
		})
	)

	return allocatorMetrics{
		freeSpace:   freeSpace,
		allocations: allocations,
		trunkFiles:  trunkFiles,
	}
}

func (m allocatorMetrics) register(reg prometheus.Registerer) {
	reg.MustRegister(m.freeSpace)
	reg.MustRegister(m.allocations)
	reg.MustRegister(m.trunkFiles)
}

func (m allocatorMetrics) SetFreeSpace(storePathIndex int, size uint64) {
	m.freeSpace.With(prometheus.Labels{storePathLabelKey: strconv.Itoa(storePathIndex)}).Set(float64(size))
}

func (m allocatorMetrics) IncAllocations(result string) {
	m.allocations.With(prometheus.Labels{resultLabelKey: result}).Inc()
}

func (m allocatorMetrics) IncTrunkFiles() {
	m.trunkFiles.Inc()
}
