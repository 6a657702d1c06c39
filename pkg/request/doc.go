// SPDX-License-Identifier: MPL-2.0

// Package request defines PackageRequest, the validated description of what
// an installer bundles, and the naming rules for the files a build produces.
//
// Requests come from CLI flags or from a request file in YAML, TOML or JSON.
// Listed paths are not required to exist: a missing path is reported as a
// warning here and fails later, when the archive is written.
package request
