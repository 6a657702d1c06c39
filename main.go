// SPDX-License-Identifier: MPL-2.0

// Command sfxpack builds self-extracting installers.
package main

import "github.com/sfxpack/sfxpack/cmd/sfxpack"

func main() {
	cmd.Execute()
}
