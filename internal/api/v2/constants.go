package api

import (
	"time"

	"github.com/greencanopy/allometree/internal/logger"
)

const (
	// APIPrefix is the path prefix of every v2 route.
	APIPrefix = "/api/v2"

	// DefaultCacheTTL is the species list cache lifetime when none is configured.
	DefaultCacheTTL = 5 * time.Minute

	// DefaultDBH is the diameter used when an estimate request omits dbh.
	DefaultDBH = 30.0

	speciesCacheName = "species"
)

// GetLogger returns the api module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("api")
}
