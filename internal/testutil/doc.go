// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Common helpers cover environment variables (MustSetenv, SetHomeDir),
// filesystem fixtures (MustWriteFile, MustReadFile, MustMkdirAll) and a
// controllable clock for build manifests (FakeClock).
package testutil
