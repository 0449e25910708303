package esql

import "runtime/debug"

// Version is set at link time with -ldflags "-X github.com/brimdata/esql.Version=...".
var Version = "dev"

// BuildInfo returns the version along with the VCS revision and commit
// time recorded by the Go toolchain, if any.
func BuildInfo() (version, date, hash string) {
	version = Version
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				hash = s.Value
			case "vcs.time":
				date = s.Value
			}
		}
	}
	return version, date, hash
}
