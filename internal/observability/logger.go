// Package observability wires the Prometheus registry and metric collectors for allometree.
package observability

import "github.com/greencanopy/allometree/internal/logger"

// GetLogger returns the observability module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("observability")
}
