// Package metrics provides constants used across metric definitions.
package metrics

import "time"

// Operation names used as label values.
const (
	// OpIndexBuild is a full equation index build.
	OpIndexBuild = "index_build"
	// OpEstimate is a single biomass estimate.
	OpEstimate = "estimate"
	// OpStage converts a raw export into a comma-delimited staged table.
	OpStage = "stage"
	// OpNormalize maps a staged table onto the canonical schema.
	OpNormalize = "normalize"
	// OpSaveRecords replaces the persisted equation table.
	OpSaveRecords = "save_records"
	// OpLoadRecords reads the persisted equation table.
	OpLoadRecords = "load_records"
	// OpCountRecords counts persisted equations.
	OpCountRecords = "count_records"
)

// Status label values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Estimate result label values
const (
	ResultFound = "found"
	ResultMiss  = "miss"
)

// ShutdownTimeout bounds graceful shutdown of HTTP servers exposing metrics.
const ShutdownTimeout = 5 * time.Second
