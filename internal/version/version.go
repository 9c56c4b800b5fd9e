// Package version holds build metadata injected via ldflags.
package version

// Set via ldflags at build time.
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
