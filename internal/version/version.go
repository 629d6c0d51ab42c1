// Package version exposes the shopdex build metadata stamped at release time.
package version

//nolint:revive // Overwritten through ldflags by the release build.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
