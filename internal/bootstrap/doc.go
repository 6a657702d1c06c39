// SPDX-License-Identifier: MPL-2.0

// Package bootstrap renders the source of the small Go program that becomes
// a self-extracting executable. The program only carries the sidecar archive
// name and a few tunables; all behaviour lives in pkg/sfxrun.
package bootstrap
