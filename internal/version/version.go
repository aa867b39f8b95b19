// Package version carries the build metadata stamped into every service
// binary via -ldflags at release time.
package version

import "runtime"

var (
	// Version is the release tag, "dev" for local builds.
	Version = "dev"
	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"
	// GitCommit is the short hash the binary was built from.
	GitCommit = "unknown"
)

// GoVersion reports the toolchain the binary was compiled with.
func GoVersion() string { return runtime.Version() }
