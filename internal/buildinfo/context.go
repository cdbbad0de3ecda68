// Package buildinfo holds build-time metadata kept out of user configuration.
package buildinfo

import "fmt"

// UnknownValue is reported for metadata that was not injected at build time.
const UnknownValue = "unknown"

// BuildInfo provides access to build-time metadata.
type BuildInfo interface {
	GetVersion() string
	GetBuildDate() string
}

// Context contains build-time metadata injected through -ldflags at startup.
type Context struct {
	Version   string // git version tag
	BuildDate string
}

// NewContext creates a Context from the linker-provided values.
func NewContext(version, buildDate string) *Context {
	return &Context{Version: version, BuildDate: buildDate}
}

// GetVersion implements BuildInfo.GetVersion
func (c *Context) GetVersion() string {
	if c == nil || c.Version == "" {
		return UnknownValue
	}
	return c.Version
}

// GetBuildDate implements BuildInfo.GetBuildDate
func (c *Context) GetBuildDate() string {
	if c == nil || c.BuildDate == "" {
		return UnknownValue
	}
	return c.BuildDate
}

// Release returns the release identifier reported to error telemetry.
func (c *Context) Release() string {
	return fmt.Sprintf("allometree@%s", c.GetVersion())
}

// String returns a one-line version banner.
func (c *Context) String() string {
	return fmt.Sprintf("allometree %s (built %s)", c.GetVersion(), c.GetBuildDate())
}
