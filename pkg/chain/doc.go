// SPDX-License-Identifier: MPL-2.0

// Package chain runs ordered fallback tiers.
//
// A tier is a named Step whose Try function returns an Attempt: either Done
// with a value, or Next with the reason the tier could not produce one. Run
// walks the steps in order and stops at the first Done. Keeping the verdict
// in the return value, rather than in panics or nested error handling, lets
// every tier be tested in isolation and keeps the fallback order in one
// place: the slice of steps.
package chain
