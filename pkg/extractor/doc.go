// SPDX-License-Identifier: MPL-2.0

// Package extractor unpacks the sidecar archive of a self-extracting package.
//
// The engine locates the archive next to the executable (with a handful of
// alternate-name guesses), copies it into a private staging directory, and
// extracts it in-process. If that fails it falls back to the platform's own
// archive utilities. When every tier fails the archive is delivered into the
// target directory so the user can extract it by hand.
package extractor
