// SPDX-License-Identifier: MPL-2.0

// Package dirselect chooses the directory a self-extracting package unpacks
// into. It tries a native folder dialog, then a text prompt, then a list of
// well-known locations, and always ends with a usable path.
//
// Host capabilities are injected through Env so the chain can be driven by
// fakes in tests; SystemEnv is the implementation used by extractors.
package dirselect
