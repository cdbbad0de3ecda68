package species

import "github.com/greencanopy/allometree/internal/logger"

// GetLogger returns the species module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("species")
}
