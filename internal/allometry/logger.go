package allometry

import "github.com/greencanopy/allometree/internal/logger"

// GetLogger returns the allometry module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("allometry")
}
