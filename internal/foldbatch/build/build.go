package build

import "runtime"

// Set at link time, e.g. -ldflags "-X github.com/armadaproject/foldbatch/internal/foldbatch/build.ReleaseVersion=v1.2.0".
var (
	ReleaseVersion = "UNKNOWN_VERSION"
	GitCommit      = "UNKNOWN_GITCOMMIT"
	BuildTime      = "UNKNOWN_BUILDTIME"
	GoVersion      = runtime.Version()
)
