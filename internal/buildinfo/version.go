// Package buildinfo reports which canopy build is running.
//
// Release builds stamp the variables with ldflags:
//
//	go build -ldflags "-X github.com/phanxgames/canopy/internal/buildinfo.Version=v1.0.0 \
//	    -X github.com/phanxgames/canopy/internal/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/phanxgames/canopy/internal/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Unstamped builds (go install, go run) fall back to the module version and
// VCS settings the toolchain embeds.
package buildinfo

import (
	"fmt"
	"runtime/debug"
	"sync"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info is the resolved build identity.
type Info struct {
	Version string
	Commit  string
	Date    string
	// Modified is set when the VCS tree had uncommitted changes.
	Modified bool
}

var current = sync.OnceValue(func() Info {
	bi, _ := debug.ReadBuildInfo()
	return resolve(Version, Commit, Date, bi)
})

// Current returns the build identity of the running binary.
func Current() Info { return current() }

// resolve prefers stamped values and fills the rest from bi.
func resolve(version, commit, date string, bi *debug.BuildInfo) Info {
	info := Info{Version: version, Commit: commit, Date: date}
	if bi == nil {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "none" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.Date == "unknown" {
				info.Date = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

// ShortCommit trims the commit to 12 characters.
func (i Info) ShortCommit() string {
	if len(i.Commit) > 12 {
		return i.Commit[:12]
	}
	return i.Commit
}

// Template returns the cobra version template.
func (i Info) Template() string {
	commit := i.ShortCommit()
	if i.Modified {
		commit += " (modified)"
	}
	return fmt.Sprintf("{{.Name}} %s\ncommit: %s\nbuilt: %s\n", i.Version, commit, i.Date)
}

// UserAgent is sent on every outgoing request.
func (i Info) UserAgent() string {
	return "canopy/" + i.Version
}
