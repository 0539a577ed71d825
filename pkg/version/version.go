// Package version carries the build identity of the turn-detection tools.
// Release builds stamp the variables via
//
//	-ldflags "-X github.com/videosdk-community/agents-go/pkg/version.Version=v1.2.3 ..."
package version

import (
	"fmt"
	"runtime"
)

var (
	// Name is the binary identity printed in the banner; each cmd/ binary
	// sets its own at startup.
	Name = "agents-go"

	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Info returns the one-line banner for the version command.
func Info() string {
	return fmt.Sprintf("%s version %s (commit: %s, built: %s, go: %s)",
		Name, Version, GitCommit, BuildTime, runtime.Version())
}
