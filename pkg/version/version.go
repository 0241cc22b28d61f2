// Package version reports the build of the oransok binary. Release builds
// set the variables with -ldflags "-X"; other builds fall back to the VCS
// data the Go toolchain embeds.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Info returns the build description, filling unset commit and time from
// the embedded VCS settings.
func Info() BuildInfo {
	bi := BuildInfo{
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if dbg, ok := debug.ReadBuildInfo(); ok {
		fillFromVCS(&bi, dbg.Settings)
	}
	return bi
}

func fillFromVCS(bi *BuildInfo, settings []debug.BuildSetting) {
	for _, s := range settings {
		switch {
		case s.Key == "vcs.revision" && bi.Commit == "unknown":
			bi.Commit = s.Value
			if len(bi.Commit) > 12 {
				bi.Commit = bi.Commit[:12]
			}
		case s.Key == "vcs.time" && bi.BuildTime == "unknown":
			bi.BuildTime = s.Value
		}
	}
}

// String renders Info on one line.
func String() string {
	bi := Info()
	return fmt.Sprintf("oransok %s (commit: %s, built: %s, %s, %s)",
		bi.Version, bi.Commit, bi.BuildTime, bi.GoVersion, bi.Platform)
}
