package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// AllometryMetrics contains Prometheus metrics for equation index builds and estimates.
type AllometryMetrics struct {
	IndexBuildTotal    *prometheus.CounterVec
	IndexBuildErrors   *prometheus.CounterVec
	IndexBuildDuration *prometheus.HistogramVec
	IndexSize          prometheus.Gauge
	RecordsSeen        prometheus.Gauge
	RecordsSkipped     *prometheus.GaugeVec
	RecordsOverwritten prometheus.Gauge
	LastReload         prometheus.Gauge

	EstimateTotal    *prometheus.CounterVec
	EstimateDuration prometheus.Histogram

	registry *prometheus.Registry
}

// NewAllometryMetrics creates and registers allometry metrics on registry.
func NewAllometryMetrics(registry *prometheus.Registry) (*AllometryMetrics, error) {
	m := &AllometryMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register allometry metrics: %w", err)
	}
	return m, nil
}

func (m *AllometryMetrics) initMetrics() {
	m.IndexBuildTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "allometry_index_builds_total",
			Help: "Total number of equation index builds",
		},
		[]string{"source", "status"},
	)
	m.IndexBuildErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "allometry_index_build_errors_total",
			Help: "Total number of failed equation index builds",
		},
		[]string{"source", "error_type"},
	)
	m.IndexBuildDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "allometry_index_build_duration_seconds",
			Help:    "Time taken to load records and build the equation index",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		},
		[]string{"source"},
	)
	m.IndexSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "allometry_index_equations",
			Help: "Number of distinct (species, region) equations in the active index",
		},
	)
	m.RecordsSeen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "allometry_index_records_seen",
			Help: "Number of records examined by the most recent index build",
		},
	)
	m.RecordsSkipped = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "allometry_index_records_skipped",
			Help: "Records left out of the most recent index build, by reason",
		},
		[]string{"reason"},
	)
	m.RecordsOverwritten = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "allometry_index_records_overwritten",
			Help: "Eligible records that replaced an earlier record with the same key in the most recent build",
		},
	)
	m.LastReload = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "allometry_index_last_reload_timestamp_seconds",
			Help: "Unix time of the most recent successful index swap",
		},
	)
	m.EstimateTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "allometry_estimates_total",
			Help: "Total number of biomass estimates, by whether a model was found",
		},
		[]string{"result"},
	)
	m.EstimateDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "allometry_estimate_duration_seconds",
			Help:    "Time taken to resolve and evaluate one estimate",
			Buckets: prometheus.ExponentialBuckets(0.0000001, 4, 8), // 100ns to ~1.6ms
		},
	)
}

func (m *AllometryMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.IndexBuildTotal,
		m.IndexBuildErrors,
		m.IndexBuildDuration,
		m.IndexSize,
		m.RecordsSeen,
		m.RecordsSkipped,
		m.RecordsOverwritten,
		m.LastReload,
		m.EstimateTotal,
		m.EstimateDuration,
	}
}

// Describe implements the prometheus.Collector interface.
func (m *AllometryMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors() {
		c.Describe(ch)
	}
}

// Collect implements the prometheus.Collector interface.
func (m *AllometryMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors() {
		c.Collect(ch)
	}
}

// RecordIndexBuild records one build attempt from source.
func (m *AllometryMetrics) RecordIndexBuild(source string, durationSeconds float64, err error) {
	if err != nil {
		m.IndexBuildTotal.WithLabelValues(source, StatusError).Inc()
		m.IndexBuildErrors.WithLabelValues(source, categorizeError(err)).Inc()
		return
	}
	m.IndexBuildTotal.WithLabelValues(source, StatusSuccess).Inc()
	m.IndexBuildDuration.WithLabelValues(source).Observe(durationSeconds)
}

// SetIndexStats publishes the shape of the active index. skipped is keyed by reason.
func (m *AllometryMetrics) SetIndexStats(size, seen, overwritten int, skipped map[string]int, swappedAtUnix float64) {
	m.IndexSize.Set(float64(size))
	m.RecordsSeen.Set(float64(seen))
	m.RecordsOverwritten.Set(float64(overwritten))
	m.RecordsSkipped.Reset()
	for reason, n := range skipped {
		m.RecordsSkipped.WithLabelValues(reason).Set(float64(n))
	}
	m.LastReload.Set(swappedAtUnix)
}

// RecordEstimate records one estimate and how long it took.
func (m *AllometryMetrics) RecordEstimate(found bool, durationSeconds float64) {
	result := ResultMiss
	if found {
		result = ResultFound
	}
	m.EstimateTotal.WithLabelValues(result).Inc()
	m.EstimateDuration.Observe(durationSeconds)
}
