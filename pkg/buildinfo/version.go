// Package buildinfo reports which wikigraph build is running.
//
// Release builds set the variables with ldflags:
//
//	go build -ldflags "-X github.com/dogeow/wikigraph/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/dogeow/wikigraph/pkg/buildinfo.Commit=$(git rev-parse --short HEAD)"
//
// Builds without ldflags fall back to the module and VCS data the Go
// toolchain embeds.
package buildinfo

import (
	"fmt"
	"runtime/debug"
	"sync"
)

var (
	// Version is the release tag, "dev" for local builds.
	Version = "dev"

	// Commit is the short git revision.
	Commit = "none"

	// Date is the build or commit time in RFC 3339.
	Date = "unknown"
)

var fillOnce sync.Once

// fill reads embedded build info for values ldflags left unset.
func fill() {
	fillOnce.Do(func() {
		bi, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		if Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if Commit == "none" && len(s.Value) >= 7 {
					Commit = s.Value[:7]
				}
			case "vcs.time":
				if Date == "unknown" {
					Date = s.Value
				}
			}
		}
	})
}

// Info returns version, commit and date after filling in embedded data.
func Info() (version, commit, date string) {
	fill()
	return Version, Commit, Date
}

// String returns the build information on three lines.
func String() string {
	v, c, d := Info()
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", v, c, d)
}

// Template returns the cobra version template.
func Template() string {
	v, c, d := Info()
	return fmt.Sprintf("{{.Name}} %s (%s, %s)\n", v, c, d)
}

// UserAgent identifies wikigraph to graph endpoints.
func UserAgent() string {
	v, _, _ := Info()
	return "wikigraph/" + v
}
