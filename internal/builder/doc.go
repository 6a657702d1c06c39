// SPDX-License-Identifier: MPL-2.0

// Package builder runs the package-build pipeline: archive the inputs,
// synthesize the bootstrap program, compile it and place the sidecar
// archive next to the executable.
//
// Every build runs in its own Workspace, a temporary directory that holds
// the archive and the generated sources and is removed when the build
// returns. A failed build leaves nothing behind in the output directory
// that it did not find there.
package builder
