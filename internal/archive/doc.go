// SPDX-License-Identifier: MPL-2.0

// Package archive builds the sidecar ZIP archive that ships beside every
// installer.
//
// Building happens in two phases. Plan turns the listed files and folders
// into an ordered entry list: files land at the archive root under their
// base names, folders are walked recursively and rooted under their own base
// names. Write then streams every entry into a deflate archive at maximum
// compression, logging one line per added entry. A path that was missing at
// planning time still gets an entry, so the write phase surfaces it as a
// WriteError instead of silently dropping it.
package archive
