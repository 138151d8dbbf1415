package main

import "runtime/debug"

// version reports the module version, with the VCS revision for local builds.
func version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "(devel)"
	}
	v := info.Main.Version
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return v + " (" + s.Value[:7] + ")"
		}
	}
	return v
}
