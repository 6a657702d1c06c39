// SPDX-License-Identifier: MPL-2.0

// Package config handles sfxpack configuration using Viper with CUE as the file format.
//
// Configuration is loaded from $XDG_CONFIG_HOME/sfxpack/config.cue on Linux,
// ~/Library/Application Support/sfxpack/config.cue on macOS and
// %APPDATA%\sfxpack\config.cue on Windows, or from a config.cue in the working
// directory. Values are validated against an embedded CUE schema
// (config_schema.cue) and can be overridden with SFXPACK_* environment
// variables, e.g. SFXPACK_BUILD_TARGET.
package config
