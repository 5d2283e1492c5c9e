package buildinfo

import "fmt"

// Set via -ldflags at build time, for example:
//
//	-X 'github.com/m3rciful/filtrbot/core/buildinfo.Version=v0.3.0'
//	-X 'github.com/m3rciful/filtrbot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/m3rciful/filtrbot/core/buildinfo.Date=2026-10-01T12:00:00Z'
var (
	// Version reports the semantic version or tag of the build.
	Version = "dev"
	// Commit reports the source control commit used for the build.
	Commit = "local"
	// Date reports the build timestamp in RFC3339 format.
	Date = ""
)

// String renders the build identity on one line.
func String() string {
	if Date == "" {
		return fmt.Sprintf("%s (%s)", Version, Commit)
	}
	return fmt.Sprintf("%s (%s, built %s)", Version, Commit, Date)
}
