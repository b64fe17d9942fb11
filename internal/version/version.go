package version

import (
	"fmt"
	"runtime/debug"
)

// develVersion is reported when neither ldflags nor the module build info carry a version.
const develVersion = "devel"

// Variables injected with -ldflags "-X".
var (
	Version   = ""
	Commit    = ""
	BuildTime = ""
)

// Short returns the driver version: the ldflags value, else the version of
// the main module from the build info, else "devel".
func Short() string {
	if Version != "" {
		return Version
	}

	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	return develVersion
}

// Full returns the version with the commit and build time when they are known.
// The vcs settings of the build info stand in for missing ldflags.
func Full() string {
	commit, built := Commit, BuildTime

	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch {
			case setting.Key == "vcs.revision" && commit == "":
				commit = setting.Value
			case setting.Key == "vcs.time" && built == "":
				built = setting.Value
			}
		}
	}

	if commit == "" {
		commit = "unknown"
	}

	if built == "" {
		built = "unknown"
	}

	return fmt.Sprintf("dgfx-setup %s (commit %s, built %s)", Short(), commit, built)
}
