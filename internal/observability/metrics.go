package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// fusion service.
type Metrics struct {
	CyclesConsumed prometheus.Counter
	CyclesFused    prometheus.Counter
	CycleFailures  *prometheus.CounterVec // label: stage
	StatsPublished prometheus.Counter
	ServiceRunning prometheus.Gauge

	// Per-cycle engine metrics.
	FuseDuration    prometheus.Histogram
	WarningsTotal   *prometheus.CounterVec // label: code
	PriorityReaches prometheus.Gauge
	RiskPixels      prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		CyclesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_fusion",
			Name:      "cycles_consumed_total",
			Help:      "Total forecast cycles read from the source.",
		}),
		CyclesFused: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_fusion",
			Name:      "cycles_fused_total",
			Help:      "Total forecast cycles fused into a risk raster.",
		}),
		CycleFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flood_fusion",
			Name:      "cycle_failures_total",
			Help:      "Total aborted cycles by pipeline stage.",
		}, []string{"stage"}),
		StatsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_fusion",
			Name:      "stats_published_total",
			Help:      "Total summary statistics records written to the sink.",
		}),
		ServiceRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "flood_fusion",
			Name:      "service_running",
			Help:      "1 when the fusion loop is active, 0 when shut down.",
		}),
		FuseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "flood_fusion",
			Name:      "cycle_fuse_duration_seconds",
			Help:      "Duration of one complete fusion run, rating curves through statistics.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		WarningsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flood_fusion",
			Name:      "warnings_total",
			Help:      "Total locally recovered anomalies by warning code.",
		}, []string{"code"}),
		PriorityReaches: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "flood_fusion",
			Name:      "priority_reaches",
			Help:      "Reaches above the highest severity threshold in the last cycle.",
		}),
		RiskPixels: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "flood_fusion",
			Name:      "risk_pixels",
			Help:      "Valid (non-no-data) pixels in the last fused risk raster.",
		}),
	}

	prometheus.MustRegister(
		m.CyclesConsumed,
		m.CyclesFused,
		m.CycleFailures,
		m.StatsPublished,
		m.ServiceRunning,
		m.FuseDuration,
		m.WarningsTotal,
		m.PriorityReaches,
		m.RiskPixels,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		CyclesConsumed:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "flood_fusion", Name: "cycles_consumed_total"}),
		CyclesFused:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "flood_fusion", Name: "cycles_fused_total"}),
		CycleFailures:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "flood_fusion", Name: "cycle_failures_total"}, []string{"stage"}),
		StatsPublished:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "flood_fusion", Name: "stats_published_total"}),
		ServiceRunning:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "flood_fusion", Name: "service_running"}),
		FuseDuration:    prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "flood_fusion", Name: "cycle_fuse_duration_seconds"}),
		WarningsTotal:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "flood_fusion", Name: "warnings_total"}, []string{"code"}),
		PriorityReaches: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "flood_fusion", Name: "priority_reaches"}),
		RiskPixels:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "flood_fusion", Name: "risk_pixels"}),
	}
}
