// Package version carries build metadata injected with -ldflags.
package version

import "fmt"

// Set with -ldflags "-X github.com/MeKo-Tech/cardscan/internal/version.Version=..."
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns the version, commit and build date.
func Info() (version, commit, date string) {
	return Version, GitCommit, BuildDate
}

// String formats the build metadata on one line.
func String() string {
	return fmt.Sprintf("cardscan %s (commit %s, built %s)", Version, GitCommit, BuildDate)
}
