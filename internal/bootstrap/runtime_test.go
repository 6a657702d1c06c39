// SPDX-License-Identifier: MPL-2.0

package bootstrap

import (
	"runtime/debug"
	"testing"
)

func TestRuntimeFromBuildInfo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		info   *debug.BuildInfo
		want   ModuleRef
		wantOK bool
	}{
		{"no info", nil, ModuleRef{}, false},
		{"devel build", &debug.BuildInfo{Main: debug.Module{Path: DefaultRuntimeModule, Version: "(devel)"}}, ModuleRef{}, false},
		{"empty version", &debug.BuildInfo{Main: debug.Module{Path: DefaultRuntimeModule}}, ModuleRef{}, false},
		{"dirty pseudo-version", &debug.BuildInfo{Main: debug.Module{
			Path:    DefaultRuntimeModule,
			Version: "v0.3.1-0.20260101120000-abcdef123456+dirty",
		}}, ModuleRef{}, false},
		{"release", &debug.BuildInfo{Main: debug.Module{Path: DefaultRuntimeModule, Version: "v1.2.0"}},
			ModuleRef{Path: DefaultRuntimeModule, Version: "v1.2.0"}, true},
		{"pseudo-version", &debug.BuildInfo{Main: debug.Module{
			Path:    DefaultRuntimeModule,
			Version: "v0.3.1-0.20260101120000-abcdef123456",
		}}, ModuleRef{Path: DefaultRuntimeModule, Version: "v0.3.1-0.20260101120000-abcdef123456"}, true},
		{"fork", &debug.BuildInfo{Main: debug.Module{Path: "example.com/fork/sfxpack", Version: "v2.0.1"}},
			ModuleRef{Path: "example.com/fork/sfxpack", Version: "v2.0.1"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := runtimeFromBuildInfo(tt.info)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("runtimeFromBuildInfo() = %+v, %v; want %+v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
