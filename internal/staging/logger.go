package staging

import "github.com/greencanopy/allometree/internal/logger"

// GetLogger returns the staging module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("staging")
}
