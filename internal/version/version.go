// Package version provides build-time information for the doxx binary.
// Version is read from the embedded VERSION file or set via ldflags.
package version

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var embeddedVersion string

// Overridable via ldflags:
// -X github.com/tacogips/doxx/internal/version.version=x.y.z
var (
	version   string
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Version returns the application version.
// Priority: ldflags > embedded VERSION file
func Version() string {
	if version != "" {
		return version
	}
	return strings.TrimSpace(embeddedVersion)
}
