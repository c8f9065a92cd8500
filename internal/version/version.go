// Package version carries build metadata, set via -ldflags at release
// time.
package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String returns the full version line printed by `grid version`.
func String() string {
	return fmt.Sprintf("geogrid %s (%s, built %s)", Version, GitSHA, BuildTime)
}
