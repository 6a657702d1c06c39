// SPDX-License-Identifier: MPL-2.0

package bootstrap

import (
	"runtime/debug"

	"golang.org/x/mod/semver"
)

// develVersion is what the toolchain stamps on binaries built from a checkout.
const develVersion = "(devel)"

// CurrentRuntime returns the runtime module the running binary was built
// from. ok is false for development builds, whose version cannot be fetched
// by the Go toolchain.
func CurrentRuntime() (ModuleRef, bool) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ModuleRef{}, false
	}
	return runtimeFromBuildInfo(info)
}

func runtimeFromBuildInfo(info *debug.BuildInfo) (ModuleRef, bool) {
	if info == nil {
		return ModuleRef{}, false
	}
	v := info.Main.Version
	// +dirty and other build metadata mark versions no proxy serves.
	if v == "" || v == develVersion || !semver.IsValid(v) || semver.Build(v) != "" {
		return ModuleRef{}, false
	}
	path := info.Main.Path
	if path == "" {
		path = DefaultRuntimeModule
	}
	return ModuleRef{Path: path, Version: v}, true
}
