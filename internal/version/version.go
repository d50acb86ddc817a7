// Package version provides version information for tk.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"

	jsonnet "github.com/google/go-jsonnet"
)

// Build-time variables set via ldflags.
var (
	// Version is the tk version.
	Version = "v0.0.0-dev"

	// GitCommit is the git commit hash.
	GitCommit = "unknown"

	// BuildDate is the build timestamp.
	BuildDate = "unknown"
)

// cueModule is the module path of the CUE SDK used for schema validation.
const cueModule = "cuelang.org/go"

// Info contains version information.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`

	// JsonnetVersion is the version of the embedded Jsonnet evaluator.
	JsonnetVersion string `json:"jsonnetVersion"`

	// CUESDKVersion is read from the build info and is "unknown" in tests.
	CUESDKVersion string `json:"cueSDKVersion"`
}

// Get returns the current version information.
func Get() Info {
	return Info{
		Version:        Version,
		GitCommit:      GitCommit,
		BuildDate:      BuildDate,
		GoVersion:      runtime.Version(),
		JsonnetVersion: jsonnet.Version(),
		CUESDKVersion:  moduleVersion(cueModule),
	}
}

// String returns a human-readable version string.
func (i Info) String() string {
	return fmt.Sprintf("tk version %s\n  Commit:    %s\n  Built:     %s\n  Go:        %s\n  Jsonnet:   %s\n  CUE SDK:   %s",
		i.Version, i.GitCommit, i.BuildDate, i.GoVersion, i.JsonnetVersion, i.CUESDKVersion)
}

// moduleVersion returns the version of a dependency compiled into the
// binary.
func moduleVersion(path string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, dep := range info.Deps {
		if dep.Path != path {
			continue
		}
		if dep.Replace != nil {
			return dep.Replace.Version
		}
		return dep.Version
	}
	return "unknown"
}
