// Package api provides the HTTP server infrastructure for allometree.
// This package contains the server while the JSON endpoints are organized
// in the v2 subpackage.
package api

import (
	"fmt"
	"net"
	"time"

	"github.com/greencanopy/allometree/internal/conf"
	"github.com/greencanopy/allometree/internal/logger"
)

// GetLogger returns the api package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("api")
}

// Default constants for the HTTP server.
const (
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	// DefaultRateLimitExpiry drops a client's limiter after this much idle time.
	DefaultRateLimitExpiry = 3 * time.Minute
)

// Config holds the HTTP server configuration.
type Config struct {
	// Server binding
	Listen string // host:port to listen on

	// Timeouts
	ReadTimeout     time.Duration // Maximum duration for reading request
	WriteTimeout    time.Duration // Maximum duration for writing response
	IdleTimeout     time.Duration // Maximum time to wait for next request
	ShutdownTimeout time.Duration // Maximum time to wait for graceful shutdown

	// Limits
	BodyLimit       string  // Maximum request body size (e.g., "1M")
	RateLimit       float64 // requests per second per client, 0 disables limiting
	RateBurst       int
	RateLimitExpiry time.Duration

	CacheTTL       time.Duration // species list cache lifetime
	MetricsEnabled bool          // serve /metrics

	Debug bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:          conf.DefaultListen,
		ReadTimeout:     DefaultReadTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		IdleTimeout:     DefaultIdleTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
		BodyLimit:       "1M",
		RateLimit:       10,
		RateBurst:       20,
		RateLimitExpiry: DefaultRateLimitExpiry,
		CacheTTL:        conf.DefaultCacheTTL,
		MetricsEnabled:  true,
	}
}

// ConfigFromSettings creates a Config from the application settings.
func ConfigFromSettings(settings *conf.Settings) *Config {
	cfg := DefaultConfig()
	cfg.Listen = settings.WebServer.Listen
	cfg.RateLimit = settings.WebServer.RateLimit
	cfg.RateBurst = settings.WebServer.RateBurst
	if settings.WebServer.CacheTTL > 0 {
		cfg.CacheTTL = settings.WebServer.CacheTTL
	}
	cfg.MetricsEnabled = settings.Metrics.Enabled
	cfg.Debug = settings.Debug
	return cfg
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", c.Listen, err)
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}
	return nil
}

// String returns a human-readable representation of the config.
func (c *Config) String() string {
	limit := "disabled"
	if c.RateLimit > 0 {
		limit = fmt.Sprintf("%g/s burst %d", c.RateLimit, c.RateBurst)
	}
	return fmt.Sprintf("Server Config: listen=%s, ratelimit=%s, metrics=%v, debug=%v",
		c.Listen, limit, c.MetricsEnabled, c.Debug)
}
