// Package version carries build-time version information for the treegrep binary.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set at build time via -ldflags.
var (
	// Version is the release version of the binary.
	Version = "dev"

	// Commit is the git commit the binary was built from.
	Commit = "<unknown>"

	// Date is the build timestamp.
	Date = "<unknown>"
)

// Resolve fills in missing values from the embedded build info when the
// binary was installed with `go install` rather than the release pipeline.
func Resolve() {
	if Commit != "<unknown>" {
		return
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			Commit = s.Value
		}

		if s.Key == "vcs.time" {
			Date = s.Value
		}
	}
}

// String returns a single-line human-readable version string.
func String() string {
	return fmt.Sprintf("treegrep %s (commit %s, built %s)", Version, Commit, Date)
}
