package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	metav1 "github.com/zdunecki/graphfleet/pkg/meta/v1"
)

type StatsExporter struct {
	WorkersDesc    *prometheus.Desc
	MaxWorkersDesc *prometheus.Desc

	Fleet Informer
}

func NewStatsExporter(informer Informer) *StatsExporter {
	return &StatsExporter{
		WorkersDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "fleet", "workers"),
			"Tracked workers by lifecycle status.",
			[]string{"status"}, nil,
		),
		MaxWorkersDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "fleet", "max_workers"),
			"Configured fleet capacity.",
			nil, nil,
		),
		Fleet: informer,
	}
}

func (s *StatsExporter) Describe(d chan<- *prometheus.Desc) {
	d <- s.WorkersDesc
	d <- s.MaxWorkersDesc
}

func (s *StatsExporter) Collect(ch chan<- prometheus.Metric) {
	counts := s.Fleet.StatusCounts()

	// every status is reported, zero included, so series do not disappear
	for _, status := range metav1.WorkerStatusListAll {
		ch <- prometheus.MustNewConstMetric(s.WorkersDesc, prometheus.GaugeValue, float64(counts[status]), string(status))
	}

	ch <- prometheus.MustNewConstMetric(s.MaxWorkersDesc, prometheus.GaugeValue, float64(s.Fleet.MaxWorkers()))
}
