package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// #region metrics
// metrics holds the engine's Prometheus instruments. They are registered on
// the registerer given to New, or left unregistered when it is nil.
type metrics struct {
	steps   *prometheus.CounterVec   // status
	pairs   prometheus.Histogram     // pairs per play
	checks  *prometheus.CounterVec   // operation, outcome
	latency *prometheus.HistogramVec // operation
	cache   *prometheus.CounterVec   // result: hit | miss
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		steps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ludics",
			Subsystem: "engine",
			Name:      "plays_total",
			Help:      "Plays stepped, by terminal status",
		}, []string{"status"}),
		pairs: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ludics",
			Subsystem: "engine",
			Name:      "play_pairs",
			Help:      "Pairs per stepped play",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64, 128, 256},
		}),
		checks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ludics",
			Subsystem: "engine",
			Name:      "checks_total",
			Help:      "Checks run, by operation and outcome",
		}, []string{"operation", "outcome"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ludics",
			Subsystem: "engine",
			Name:      "check_duration_seconds",
			Help:      "Check latency in seconds, cache hits excluded",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"operation"}),
		cache: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ludics",
			Subsystem: "engine",
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups, by result",
		}, []string{"result"}),
	}
}

// #endregion metrics
