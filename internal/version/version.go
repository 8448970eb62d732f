// Package version resolves the toolkit version string. Resolution prefers
// metadata stamped by the build (module version or VCS information from the
// Go toolchain) and falls back to the linker-injected release string. When
// neither exists the caller gets an error; that is a reportable condition,
// not a fatal one, and surfaces as "unknown" in user-facing output.
package version

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
)

// release is stamped at build time:
//
//	go build -ldflags "-X golook/internal/version.release=1.2.0"
var release = ""

// ErrNoVersionMetadata indicates that neither build metadata nor a stamped
// release string is available.
var ErrNoVersionMetadata = errors.New("version: no build or release metadata available")

// Info carries the full version report for the /api/version endpoint and
// the CLI -version flag.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	Dirty     bool   `json:"dirty,omitempty"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// Resolve returns the toolkit version. Order: module version from build
// metadata, then a VCS-derived development version, then the stamped
// release string.
func Resolve() (string, error) {
	if bi, ok := readBuildInfo(); ok {
		if v := bi.Main.Version; v != "" && v != "(devel)" {
			return v, nil
		}
		if rev, dirty := vcsRevision(bi); rev != "" {
			v := fmt.Sprintf("0.0.0-dev+%s", shortRev(rev))
			if dirty {
				v += ".dirty"
			}
			return v, nil
		}
	}
	if release != "" {
		return release, nil
	}
	return "", ErrNoVersionMetadata
}

// Get returns the full version report. The version field degrades to
// "unknown" when resolution fails.
func Get() Info {
	info := Info{
		Version:   "unknown",
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
	if v, err := Resolve(); err == nil {
		info.Version = v
	}
	if bi, ok := readBuildInfo(); ok {
		rev, dirty := vcsRevision(bi)
		info.Commit = shortRev(rev)
		info.Dirty = dirty
	}
	return info
}

func vcsRevision(bi *debug.BuildInfo) (rev string, dirty bool) {
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	return rev, dirty
}

func shortRev(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}
