// Package version exposes build metadata stamped in via -ldflags.
package version

import "fmt"

// Set at build time:
//
//	go build -ldflags "-X .../internal/version.Version=0.2.0 -X .../internal/version.Commit=abc1234"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Short returns just the version string.
func Short() string {
	return Version
}

// Info returns a one-line human-readable description.
func Info() string {
	return fmt.Sprintf("vitalsim %s (commit %s, built %s)", Version, Commit, Date)
}

// Map returns the build metadata for API responses.
func Map() map[string]string {
	return map[string]string{
		"version": Version,
		"commit":  Commit,
		"date":    Date,
	}
}
