// SPDX-License-Identifier: MPL-2.0

package bootstrap

import (
	"bytes"
	"fmt"
	"go/format"
	"path"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/sfxpack/sfxpack/pkg/request"
)

const (
	// DefaultRuntimeModule is the module imported by generated programs.
	DefaultRuntimeModule = "github.com/sfxpack/sfxpack"
	// DefaultGoVersion is written to the generated go.mod.
	DefaultGoVersion = "1.25"
	// ModulePath is the module name of generated programs.
	ModulePath = "sfxbootstrap"

	mainFile  = "main.go"
	goModFile = "go.mod"
)

type (
	// Spec is the data baked into a generated program.
	Spec struct {
		AppDisplayName     string
		ArchiveSidecarName string
		PromptTimeout      time.Duration
		DialogTimeout      time.Duration
		FallbackTimeout    time.Duration
		DefaultRoots       []string
	}

	// ModuleRef points generated programs at the runtime module.
	ModuleRef struct {
		Path    string
		Version string
		// Dir, when set, adds a replace directive to a local checkout.
		Dir       string
		GoVersion string
	}

	// Source is a rendered program, keyed by file name.
	Source struct {
		Files map[string][]byte
	}
)

var mainTemplate = template.Must(template.New("main").Parse(`// Code generated by sfxpack. DO NOT EDIT.

package main

import (
	"os"
{{- if .NeedTime }}
	"time"
{{- end }}

	"{{ .RuntimeImport }}"
)

func main() {
	os.Exit(sfxrun.Main(sfxrun.Options{
		AppName:     {{ .AppName }},
		ArchiveName: {{ .ArchiveName }},
{{- if .PromptTimeout }}
		PromptTimeout: {{ .PromptTimeout }},
{{- end }}
{{- if .DialogTimeout }}
		DialogTimeout: {{ .DialogTimeout }},
{{- end }}
{{- if .FallbackTimeout }}
		FallbackTimeout: {{ .FallbackTimeout }},
{{- end }}
{{- if .DefaultRoots }}
		DefaultRoots: []string{ {{- .DefaultRoots -}} },
{{- end }}
	}))
}
`))

var goModTemplate = template.Must(template.New("gomod").Parse(`module {{ .Module }}

go {{ .GoVersion }}

require {{ .RuntimePath }} {{ .RuntimeVersion }}
{{- if .ReplaceDir }}

replace {{ .RuntimePath }} => {{ .ReplaceDir }}
{{- end }}
`))

// Synthesize renders the program for spec against the runtime module mod.
func Synthesize(spec Spec, mod ModuleRef) (*Source, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	mod = mod.withDefaults()

	mainSrc, err := renderMain(spec, mod)
	if err != nil {
		return nil, err
	}
	goMod, err := renderGoMod(mod)
	if err != nil {
		return nil, err
	}

	return &Source{Files: map[string][]byte{
		mainFile:  mainSrc,
		goModFile: goMod,
	}}, nil
}

// Validate checks that spec can be compiled into a program.
func (s Spec) Validate() error {
	if strings.TrimSpace(s.AppDisplayName) == "" {
		return &request.ConfigurationError{Field: "app_name", Problem: "must not be empty"}
	}
	name := strings.TrimSpace(s.ArchiveSidecarName)
	if name == "" {
		return &request.ConfigurationError{Field: "sidecar_name", Problem: "must not be empty"}
	}
	if strings.ContainsAny(name, `/\`) {
		return &request.ConfigurationError{Field: "sidecar_name", Problem: "must be a bare file name"}
	}
	return nil
}

// Names returns the file names of the source in a stable order.
func (s *Source) Names() []string {
	names := make([]string, 0, len(s.Files))
	for name := range s.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m ModuleRef) withDefaults() ModuleRef {
	if m.Path == "" {
		m.Path = DefaultRuntimeModule
	}
	if m.Version == "" {
		m.Version = "v0.0.0"
	}
	if m.GoVersion == "" {
		m.GoVersion = DefaultGoVersion
	}
	return m
}

func renderMain(spec Spec, mod ModuleRef) ([]byte, error) {
	roots := make([]string, 0, len(spec.DefaultRoots))
	for _, r := range spec.DefaultRoots {
		roots = append(roots, strconv.Quote(r))
	}

	data := struct {
		RuntimeImport   string
		AppName         string
		ArchiveName     string
		PromptTimeout   string
		DialogTimeout   string
		FallbackTimeout string
		DefaultRoots    string
		NeedTime        bool
	}{
		RuntimeImport:   path.Join(mod.Path, "pkg", "sfxrun"),
		AppName:         strconv.Quote(spec.AppDisplayName),
		ArchiveName:     strconv.Quote(spec.ArchiveSidecarName),
		PromptTimeout:   durationLiteral(spec.PromptTimeout),
		DialogTimeout:   durationLiteral(spec.DialogTimeout),
		FallbackTimeout: durationLiteral(spec.FallbackTimeout),
		DefaultRoots:    strings.Join(roots, ", "),
	}
	data.NeedTime = data.PromptTimeout != "" || data.DialogTimeout != "" || data.FallbackTimeout != ""

	var buf bytes.Buffer
	if err := mainTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", mainFile, err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to format %s: %w", mainFile, err)
	}
	return src, nil
}

func renderGoMod(mod ModuleRef) ([]byte, error) {
	data := struct {
		Module         string
		GoVersion      string
		RuntimePath    string
		RuntimeVersion string
		ReplaceDir     string
	}{
		Module:         ModulePath,
		GoVersion:      mod.GoVersion,
		RuntimePath:    mod.Path,
		RuntimeVersion: mod.Version,
		ReplaceDir:     modQuote(mod.Dir),
	}

	var buf bytes.Buffer
	if err := goModTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", goModFile, err)
	}
	return buf.Bytes(), nil
}

// durationLiteral renders d as a Go expression, or "" for zero.
func durationLiteral(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	if d%time.Second == 0 {
		return fmt.Sprintf("%d * time.Second", d/time.Second)
	}
	return fmt.Sprintf("time.Duration(%d)", int64(d))
}

// modQuote quotes a go.mod path when it contains spaces or quotes.
func modQuote(s string) string {
	if s == "" || !strings.ContainsAny(s, " \t\"'`") {
		return s
	}
	return strconv.Quote(s)
}
