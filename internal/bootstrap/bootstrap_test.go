// SPDX-License-Identifier: MPL-2.0

package bootstrap

import (
	"errors"
	"go/parser"
	"go/token"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/sfxpack/sfxpack/pkg/request"
)

func TestSynthesize(t *testing.T) {
	t.Parallel()

	src, err := Synthesize(Spec{
		AppDisplayName:     `Demo "Deluxe"`,
		ArchiveSidecarName: "Demo-1.0_archive.zip",
		PromptTimeout:      90 * time.Second,
		FallbackTimeout:    1500 * time.Millisecond,
		DefaultRoots:       []string{`C:\Games`, "/opt/games"},
	}, ModuleRef{Path: "example.com/runtime", Version: "v1.2.3", Dir: "/src/my runtime"})
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	if got := src.Names(); !slices.Equal(got, []string{"go.mod", "main.go"}) {
		t.Errorf("Names() = %v", got)
	}

	main := string(src.Files["main.go"])
	if _, err := parser.ParseFile(token.NewFileSet(), "main.go", main, parser.AllErrors); err != nil {
		t.Fatalf("generated main.go does not parse: %v\n%s", err, main)
	}
	for _, want := range []string{
		`"example.com/runtime/pkg/sfxrun"`,
		`"Demo-1.0_archive.zip"`,
		`"Demo \"Deluxe\""`,
		`90 * time.Second`,
		`time.Duration(1500000000)`,
		`"C:\\Games"`,
		`os.Exit(sfxrun.Main(`,
	} {
		if !strings.Contains(main, want) {
			t.Errorf("main.go missing %s:\n%s", want, main)
		}
	}
	if strings.Contains(main, "DialogTimeout") {
		t.Error("zero timeouts should be omitted")
	}

	goMod := string(src.Files["go.mod"])
	for _, want := range []string{
		"module sfxbootstrap",
		"require example.com/runtime v1.2.3",
		`replace example.com/runtime => "/src/my runtime"`,
	} {
		if !strings.Contains(goMod, want) {
			t.Errorf("go.mod missing %q:\n%s", want, goMod)
		}
	}
}

func TestSynthesizeMinimal(t *testing.T) {
	t.Parallel()

	src, err := Synthesize(Spec{AppDisplayName: "App", ArchiveSidecarName: "App_archive.zip"}, ModuleRef{})
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	main := string(src.Files["main.go"])
	if strings.Contains(main, `"time"`) {
		t.Errorf("time should not be imported without timeouts:\n%s", main)
	}
	if _, err := parser.ParseFile(token.NewFileSet(), "main.go", main, 0); err != nil {
		t.Fatalf("generated main.go does not parse: %v", err)
	}
	goMod := string(src.Files["go.mod"])
	if !strings.Contains(goMod, "require "+DefaultRuntimeModule+" v0.0.0") || strings.Contains(goMod, "replace") {
		t.Errorf("unexpected go.mod:\n%s", goMod)
	}
}

func TestSpecValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		spec  Spec
		field string
	}{
		{"empty app name", Spec{ArchiveSidecarName: "a.zip"}, "app_name"},
		{"blank app name", Spec{AppDisplayName: "  ", ArchiveSidecarName: "a.zip"}, "app_name"},
		{"empty sidecar", Spec{AppDisplayName: "A"}, "sidecar_name"},
		{"sidecar with slash", Spec{AppDisplayName: "A", ArchiveSidecarName: "dir/a.zip"}, "sidecar_name"},
		{"sidecar with backslash", Spec{AppDisplayName: "A", ArchiveSidecarName: `dir\a.zip`}, "sidecar_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Synthesize(tt.spec, ModuleRef{})
			if !errors.Is(err, request.ErrInvalidRequest) {
				t.Fatalf("Synthesize() error = %v, want ErrInvalidRequest", err)
			}
			var cfgErr *request.ConfigurationError
			if !errors.As(err, &cfgErr) || cfgErr.Field != tt.field {
				t.Errorf("field = %v, want %s", cfgErr, tt.field)
			}
		})
	}
}
