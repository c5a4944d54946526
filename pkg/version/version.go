// Package version describes the running build of mock-api-server.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Set with -ldflags "-X github.com/niels/mock-api-server/pkg/version.Version=..."
var (
	Version   = "0.1.0"
	GitCommit = ""
	BuildDate = ""
)

const (
	AppName     = "mock-api-server"
	Description = "Serve a JSON file of route -> response mappings as a local mock HTTP API"
)

// UserAgent identifies the server in the Server response header
func UserAgent() string {
	return AppName + "/" + Version
}

// vcsInfo falls back to the revision the go tool stamped into the binary
// when nothing was set through ldflags.
func vcsInfo() (commit, date string, modified bool) {
	commit, date = GitCommit, BuildDate
	if commit != "" {
		return commit, date, false
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return commit, date, false
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			commit = s.Value
		case "vcs.time":
			if date == "" {
				date = s.Value
			}
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}
	return commit, date, modified
}

// GetVersionInfo returns the version followed by the build details known
// for this binary, one per line.
func GetVersionInfo() string {
	lines := []string{fmt.Sprintf("%s version %s", AppName, Version)}

	commit, date, modified := vcsInfo()
	if commit != "" {
		if modified {
			commit += " (modified)"
		}
		lines = append(lines, "Git commit: "+commit)
	}
	if date != "" {
		lines = append(lines, "Build date: "+date)
	}

	lines = append(lines,
		"Go version: "+runtime.Version(),
		fmt.Sprintf("Platform: %s/%s", runtime.GOOS, runtime.GOARCH),
	)
	return strings.Join(lines, "\n")
}
