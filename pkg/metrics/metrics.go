package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	metav1 "github.com/zdunecki/graphfleet/pkg/meta/v1"
)

const namespace = "graphfleet"

// Informer is the read side of the fleet the exporter samples on every scrape.
type Informer interface {
	StatusCounts() map[metav1.WorkerStatus]int
	MaxWorkers() int
}

// Metrics holds the fleet counters. A nil *Metrics records nothing.
type Metrics struct {
	spawnAttempts  prometheus.Counter
	spawnSuccesses prometheus.Counter
	spawnFailures  *prometheus.CounterVec
	deletes        prometheus.Counter
	attached       prometheus.Counter
	probeWait      prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		spawnAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spawn_attempts_total",
			Help:      "Worker spawn attempts.",
		}),
		spawnSuccesses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spawn_successes_total",
			Help:      "Workers which passed the readiness probe.",
		}),
		spawnFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spawn_failures_total",
			Help:      "Failed worker spawns by reason.",
		}, []string{"reason"}),
		deletes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deletes_total",
			Help:      "Workers deleted.",
		}),
		attached: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attached_total",
			Help:      "Workers attached from live cluster state.",
		}),
		probeWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "probe_wait_seconds",
			Help:      "Time a worker took to accept the readiness handshake.",
			Buckets:   []float64{1, 10, 30, 60, 120, 300, 600, 900},
		}),
	}
}

// Register adds the counters and a fleet exporter backed by informer to reg.
func (m *Metrics) Register(reg prometheus.Registerer, informer Informer) error {
	collectors := []prometheus.Collector{
		m.spawnAttempts,
		m.spawnSuccesses,
		m.spawnFailures,
		m.deletes,
		m.attached,
		m.probeWait,
		NewStatsExporter(informer),
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}

	return nil
}

func (m *Metrics) SpawnAttempt() {
	if m == nil {
		return
	}
	m.spawnAttempts.Inc()
}

func (m *Metrics) SpawnSuccess(waited time.Duration) {
	if m == nil {
		return
	}
	m.spawnSuccesses.Inc()
	m.probeWait.Observe(waited.Seconds())
}

func (m *Metrics) SpawnFailure(reason string) {
	if m == nil {
		return
	}
	m.spawnFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) Delete() {
	if m == nil {
		return
	}
	m.deletes.Inc()
}

func (m *Metrics) Attach(n int) {
	if m == nil {
		return
	}
	m.attached.Add(float64(n))
}
