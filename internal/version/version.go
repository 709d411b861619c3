package version

import "github.com/fatih/color"

// Version information for the hdlelab CLI.
// These variables can be overridden at build time via -ldflags.
var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	versionColor = color.New(color.FgGreen, color.Bold)
	metaColor    = color.New(color.Faint)
)

// Info renders the version line shown by `hdlelab version`. Color output
// follows color.NoColor.
func Info() string {
	out := "hdlelab " + versionColor.Sprint(Version)
	if GitCommit != "" {
		out += metaColor.Sprint(" (" + GitCommit + ")")
	}
	if BuildDate != "" {
		out += metaColor.Sprint(" built " + BuildDate)
	}
	return out
}
