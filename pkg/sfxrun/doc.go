// SPDX-License-Identifier: MPL-2.0

// Package sfxrun is the entry point of generated self-extracting programs.
//
// A generated main package does nothing but call Main with the values that
// were fixed at build time:
//
//	func main() {
//		os.Exit(sfxrun.Main(sfxrun.Options{
//			AppName:     "Demo",
//			ArchiveName: "Demo-1.0_archive.zip",
//		}))
//	}
//
// Behaviour can be adjusted at run time through SFX_* environment variables;
// see EnvConfig.
package sfxrun
