// Package buildinfo reports the version of the release-please binary.
package buildinfo

import "runtime/debug"

// BinaryVersion is stamped by the release build via -ldflags; "dev" means a
// local build.
var BinaryVersion = "dev"

// ModuleVersion returns the version the Go toolchain embedded for the main
// module, or "" when none is available (local builds from a worktree).
func ModuleVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return ""
}
