// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"testing"
)

func TestParseID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    ID
		wantErr bool
	}{
		{"", DefaultTarget, false},
		{"windows/amd64", "windows/amd64", false},
		{" Linux/ARM64 ", "linux/arm64", false},
		{"darwin/arm64", "darwin/arm64", false},
		{"windows", "", true},
		{"plan9/amd64", "", true},
		{"linux/mips", "", true},
		{"/amd64", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := ParseID(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTarget) {
					t.Fatalf("ParseID(%q) error = %v, want ErrInvalidTarget", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseID(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIDParts(t *testing.T) {
	t.Parallel()

	id := ID("windows/386")
	if id.OS() != Windows {
		t.Errorf("OS() = %q, want %q", id.OS(), Windows)
	}
	if id.Arch() != "386" {
		t.Errorf("Arch() = %q, want 386", id.Arch())
	}
	if id.ExecutableSuffix() != ".exe" {
		t.Errorf("ExecutableSuffix() = %q, want .exe", id.ExecutableSuffix())
	}
	if ID("linux/amd64").ExecutableSuffix() != "" {
		t.Error("linux targets must not get an executable suffix")
	}
	if err := Host().Validate(); err != nil {
		t.Logf("host platform %s is not a supported build target: %v", Host(), err)
	}
}
