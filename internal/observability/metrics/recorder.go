// Package metrics provides custom Prometheus metrics for allometree.
package metrics

// Recorder defines a minimal interface for recording metrics.
// Components depend on it instead of a concrete collector so tests can
// substitute a TestRecorder.
type Recorder interface {
	// RecordOperation records an operation ("stage", "normalize") with its status.
	RecordOperation(operation, status string)

	// RecordDuration records the duration of an operation in seconds.
	RecordDuration(operation string, seconds float64)

	// RecordError records an error occurrence with its type.
	RecordError(operation, errorType string)
}

// NopRecorder discards everything recorded.
type NopRecorder struct{}

func (NopRecorder) RecordOperation(string, string) {}
func (NopRecorder) RecordDuration(string, float64) {}
func (NopRecorder) RecordError(string, string) {}
