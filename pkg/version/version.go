// Package version reports the build of the distance-generator binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Set at build time with -ldflags "-X .../pkg/version.GitCommit=...".
// Left unset, the values recorded by the go command are used instead.
var (
	Version   = "v0.1.0-beta"
	GitCommit = ""
	BuildTime = ""
)

const unknown = "unknown"

// BuildInfo describes the running binary
type BuildInfo struct {
	Version   string
	GitCommit string
	BuildTime string
	Modified  bool
	GoVersion string
	Platform  string
}

// GetBuildInfo returns the ldflags values, falling back to the VCS stamp
// embedded by the go command
func GetBuildInfo() *BuildInfo {
	info := &BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		applyVCS(info, bi.Settings)
	}
	if info.GitCommit == "" {
		info.GitCommit = unknown
	}
	if info.BuildTime == "" {
		info.BuildTime = unknown
	}
	return info
}

func applyVCS(info *BuildInfo, settings []debug.BuildSetting) {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = s.Value
			}
		case "vcs.time":
			if info.BuildTime == "" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
}

// ShortCommit returns the first seven characters of the commit, or "" when unknown
func (b *BuildInfo) ShortCommit() string {
	if b.GitCommit == unknown || len(b.GitCommit) < 7 {
		return ""
	}
	return b.GitCommit[:7]
}

// GetVersionWithCommit returns the version followed by the short commit, e.g. v0.1.0 (1a2b3c4)
func GetVersionWithCommit() string {
	info := GetBuildInfo()
	commit := info.ShortCommit()
	if commit == "" {
		return info.Version
	}
	if info.Modified {
		commit += "-dirty"
	}
	return fmt.Sprintf("%s (%s)", info.Version, commit)
}

// GetFullVersionString returns the multi-line text printed by --version
func GetFullVersionString() string {
	info := GetBuildInfo()
	return fmt.Sprintf("distance-generator %s\nCommit: %s\nBuilt: %s\nGo: %s\nPlatform: %s",
		info.Version,
		info.GitCommit,
		info.BuildTime,
		info.GoVersion,
		info.Platform,
	)
}

// IsPrerelease reports whether Version carries a prerelease tag
func IsPrerelease() bool {
	_, pre, ok := strings.Cut(Version, "-")
	return ok && pre != ""
}
