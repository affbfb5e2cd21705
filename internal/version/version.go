// Package version holds build metadata injected via ldflags.
package version

// Service is the public service name.
const Service = "AEGIS Sonar API"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "1.0.0"
	Commit  = "unknown"
	Date    = "unknown"
)
