// Package version holds the release version of leadfinder.
package version

// Current is the release version, without a "v" prefix.
const Current = "0.1.0"

// Commit is set at build time with -ldflags "-X ...version.Commit=<sha>".
var Commit = "unknown"
