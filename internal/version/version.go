// Package version holds build information injected at link time:
//
//	go build -ldflags "-X github.com/arthur-debert/isobundle/internal/version.Version=v1.2.0"
package version

import (
	"fmt"
	"runtime/debug"
)

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Bundler returns the esbuild module version linked into the binary
func Bundler() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, dep := range info.Deps {
		if dep.Path == "github.com/evanw/esbuild" {
			return dep.Version
		}
	}
	return "unknown"
}

// String renders every field on one line
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s, esbuild %s)", Version, Commit, Date, Bundler())
}
