// Package conf provides configuration management for allometree.
package conf

import "github.com/greencanopy/allometree/internal/logger"

// GetLogger returns the config package logger scoped to the config module.
// It is resolved on every call because the central logger is installed after
// settings have been loaded.
func GetLogger() logger.Logger {
	return logger.Global().Module("config")
}
