// Package version holds build metadata for the coinboard binaries.
//
// Set with ldflags:
//
//	go build -ldflags "-X github.com/rickgao/coinboard/internal/version.Version=1.2.0 \
//	                   -X github.com/rickgao/coinboard/internal/version.Commit=$(git rev-parse --short HEAD)" ./cmd/...
package version

import "runtime/debug"

var (
	Version = "dev"
	Commit  = "unknown"
)

// String returns "version (commit)". When Commit was not set at link time
// the VCS revision recorded by the Go toolchain is used.
func String() string {
	commit := Commit
	if commit == "unknown" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" && len(s.Value) >= 7 {
					commit = s.Value[:7]
				}
			}
		}
	}
	return Version + " (" + commit + ")"
}
