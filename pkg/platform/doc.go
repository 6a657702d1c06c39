// SPDX-License-Identifier: MPL-2.0

// Package platform provides cross-platform compatibility utilities.
//
// It names the build targets an installer can be compiled for, knows which
// executable suffix each target uses, and rejects output names that Windows
// reserves regardless of extension.
package platform
