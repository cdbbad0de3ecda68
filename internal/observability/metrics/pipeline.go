package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics contains Prometheus metrics for the staging and normalization steps.
// It implements Recorder.
type PipelineMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	operationErrors   *prometheus.CounterVec
	rowsProcessed     *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewPipelineMetrics creates and registers pipeline metrics on registry.
func NewPipelineMetrics(registry *prometheus.Registry) (*PipelineMetrics, error) {
	m := &PipelineMetrics{registry: registry}

	m.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_operations_total",
			Help: "Total number of staging pipeline runs",
		},
		[]string{"operation", "status"},
	)
	m.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_operation_duration_seconds",
			Help:    "Time taken by a staging pipeline step",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		},
		[]string{"operation"},
	)
	m.operationErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_operation_errors_total",
			Help: "Total number of staging pipeline errors",
		},
		[]string{"operation", "error_type"},
	)
	m.rowsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_rows_processed_total",
			Help: "Total number of data rows written by a staging pipeline step",
		},
		[]string{"operation"},
	)

	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register pipeline metrics: %w", err)
	}
	return m, nil
}

// Describe implements the prometheus.Collector interface.
func (m *PipelineMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.operationsTotal.Describe(ch)
	m.operationDuration.Describe(ch)
	m.operationErrors.Describe(ch)
	m.rowsProcessed.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *PipelineMetrics) Collect(ch chan<- prometheus.Metric) {
	m.operationsTotal.Collect(ch)
	m.operationDuration.Collect(ch)
	m.operationErrors.Collect(ch)
	m.rowsProcessed.Collect(ch)
}

// RecordOperation implements Recorder.
func (m *PipelineMetrics) RecordOperation(operation, status string) {
	m.operationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordDuration implements Recorder.
func (m *PipelineMetrics) RecordDuration(operation string, seconds float64) {
	m.operationDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordError implements Recorder.
func (m *PipelineMetrics) RecordError(operation, errorType string) {
	m.operationErrors.WithLabelValues(operation, errorType).Inc()
}

// RecordRows adds to the number of rows written by operation.
func (m *PipelineMetrics) RecordRows(operation string, rows int) {
	m.rowsProcessed.WithLabelValues(operation).Add(float64(rows))
}
