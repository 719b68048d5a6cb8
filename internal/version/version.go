// Package version holds build information injected with -ldflags.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set at build time, e.g.
//
//	-ldflags "-X github.com/longkey1/shopadvice/internal/version.Version=v0.1.0"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Short returns just the version number
func Short() string {
	if Version == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}
	return Version
}

// Info returns version, commit, build time and Go version on separate lines
func Info() string {
	return fmt.Sprintf("Version:    %s\nCommit:     %s\nBuild Time: %s\nGo Version: %s\nPlatform:   %s/%s",
		Short(), Commit, BuildTime, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
