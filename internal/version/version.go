// Package version holds build metadata injected via ldflags:
//
//	-X github.com/kailas-cloud/corner/internal/version.Version=v1.2.0
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String formats the build metadata for logs and the version flag.
func String() string {
	return fmt.Sprintf("corner %s (commit %s, built %s)", Version, Commit, Date)
}
