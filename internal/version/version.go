// Package version reports the nsd build version.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// Set at build time:
//
//	go build -ldflags="-X github.com/muurk/nsd/internal/version.Version=v0.3.0 \
//	                   -X github.com/muurk/nsd/internal/version.Commit=abc1234"
//
// Unset values are filled from the VCS stamp in the build info, then from
// a "dev" placeholder.
var (
	// Version is the release version of nsd
	Version = ""
	// Commit is the short git commit hash
	Commit = ""
)

func init() {
	info, _ := debug.ReadBuildInfo()
	Version, Commit = resolve(Version, Commit, info, time.Now())
}

// resolve fills unset version fields from build info, then falls back to
// a timestamped dev version.
func resolve(version, commit string, info *debug.BuildInfo, now time.Time) (string, string) {
	if info != nil && (version == "" || commit == "") {
		var revision, modified, vcsTime string
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				revision = s.Value
			case "vcs.modified":
				modified = s.Value
			case "vcs.time":
				vcsTime = s.Value
			}
		}

		if commit == "" && revision != "" {
			commit = revision
			if len(commit) > 7 {
				commit = commit[:7]
			}
			if modified == "true" {
				commit += "-dirty"
			}
		}

		if version == "" {
			if v := info.Main.Version; v != "" && v != "(devel)" {
				version = v
			} else if t, err := time.Parse(time.RFC3339, vcsTime); err == nil {
				version = "dev-" + t.Format("20060102")
			}
		}
	}

	if version == "" {
		version = "dev-" + now.Format("20060102-150405")
	}
	if commit == "" {
		commit = "unknown"
	}
	return version, commit
}

// Full returns the version string including commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// Platform returns the Go runtime and target platform, e.g. "go1.24.10 linux/amd64"
func Platform() string {
	return fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
