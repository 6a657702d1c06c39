// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"

	"github.com/charmbracelet/glamour"
)

type Id int

const (
	FileNotFoundId Id = iota + 1
	InvalidRequestId
	RequestFileUnsupportedId
	ArchiveWriteFailedId
	CompileFailedId
	GoToolchainNotFoundId
	ArchiveNotFoundId
	ExtractionFailedId
	ConfigLoadFailedId
	ChecksumMismatchId
	PermissionDeniedId
	RuntimeModuleUnavailableId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	fileNotFoundIssue = &Issue{
		id: FileNotFoundId,
		mdMsg: `
# A file or folder could not be found

One of the inputs of the package does not exist.

## Things you can try:
- Check the paths passed with '--file' and '--folder'
- Relative paths in a request file are resolved against the file's own directory
- Preview what would be packed:
~~~
$ sfxpack build --request release.yaml --dry-run
~~~`,
	}

	invalidRequestIssue = &Issue{
		id: InvalidRequestId,
		mdMsg: `
# The package request is invalid

A package needs a name, a version and at least one file or folder.

## Things you can try:
- Provide the required flags:
~~~
$ sfxpack build --name Demo --version 1.0 --folder ./assets --file ./readme.txt
~~~
- Targets are written as '<os>/<arch>', e.g. 'windows/amd64' or 'linux/arm64'
- Output names must be plain file names without path separators`,
	}

	requestFileUnsupportedIssue = &Issue{
		id: RequestFileUnsupportedId,
		mdMsg: `
# Unsupported request file

Request files are read by extension.

## Supported formats:
- '.yaml' / '.yml'
- '.toml'
- '.json'

## Example request file:
~~~yaml
app_name: Demo
version: "1.0"
files: [readme.txt]
folders: [assets]
output_dir: dist
~~~`,
	}

	archiveWriteFailedIssue = &Issue{
		id: ArchiveWriteFailedId,
		mdMsg: `
# The archive could not be written

An input could not be read, or the archive could not be written to disk.
The partial archive was removed.

## Things you can try:
- Make sure every listed file exists and is readable
- Check there is enough free disk space in the temporary directory
- Run again with '--verbose' to see each entry as it is added`,
	}

	compileFailedIssue = &Issue{
		id: CompileFailedId,
		mdMsg: `
# The extractor program failed to compile

The Go toolchain rejected the generated program. Its output is shown above.

## Things you can try:
- Check that 'compiler.runtime_module' and 'compiler.runtime_version' name a published version
- During development point 'compiler.runtime_module_dir' at a local checkout
- Make sure the module proxy is reachable, or set 'GOFLAGS' / 'GOPROXY' accordingly`,
	}

	runtimeModuleUnavailableIssue = &Issue{
		id: RuntimeModuleUnavailableId,
		mdMsg: `
# No runtime module to compile against

Extractors import sfxpack's runtime packages. This sfxpack binary was built
from a source checkout, so there is no published version to fetch.

## Things you can try:
- Point sfxpack at the checkout it was built from:
~~~cue
compiler: {
	runtime_module_dir: "/path/to/sfxpack"
}
~~~
- Or pin a published release with 'compiler.runtime_version'
- Or install a tagged release with 'go install github.com/sfxpack/sfxpack@latest'`,
	}

	goToolchainNotFoundIssue = &Issue{
		id: GoToolchainNotFoundId,
		mdMsg: `
# The Go toolchain was not found

sfxpack compiles extractors with the 'go' command.

## Things you can try:
- Install Go from https://go.dev/dl/
- Or point sfxpack at a specific binary:
~~~cue
compiler: {
	go_binary: "/usr/local/go/bin/go"
}
~~~`,
	}

	archiveNotFoundIssue = &Issue{
		id: ArchiveNotFoundId,
		mdMsg: `
# The package archive was not found

A self-extracting executable needs its '_archive.zip' sidecar next to it.

## Things you can try:
- Keep the executable and the '.zip' file in the same folder
- Do not rename the '.zip' file`,
	}

	extractionFailedIssue = &Issue{
		id: ExtractionFailedId,
		mdMsg: `
# Extraction failed

Neither the built-in extractor nor the system utilities could unpack the archive.
A copy of the archive was placed in the destination folder.

## Things you can try:
- Extract the copied archive manually with your file manager
- Check that the destination is writable and has enough free space`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration

The configuration file contains errors.

## Things you can try:
- Check the file for CUE syntax errors
- Show the effective configuration:
~~~
$ sfxpack config show
~~~
- Write a fresh default file:
~~~
$ sfxpack config init
~~~`,
	}

	checksumMismatchIssue = &Issue{
		id: ChecksumMismatchId,
		mdMsg: `
# Checksum mismatch

A file in the build output does not match 'checksums.txt'.

## Things you can try:
- Rebuild the package
- Re-download the files if they were transferred`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied

sfxpack could not write to the output location.

## Things you can try:
- Choose another '--output-dir'
- Check the permissions of the directory`,
	}

	issues = map[Id]*Issue{
		fileNotFoundIssue.Id():             fileNotFoundIssue,
		invalidRequestIssue.Id():           invalidRequestIssue,
		requestFileUnsupportedIssue.Id():   requestFileUnsupportedIssue,
		archiveWriteFailedIssue.Id():       archiveWriteFailedIssue,
		compileFailedIssue.Id():            compileFailedIssue,
		goToolchainNotFoundIssue.Id():      goToolchainNotFoundIssue,
		archiveNotFoundIssue.Id():          archiveNotFoundIssue,
		extractionFailedIssue.Id():         extractionFailedIssue,
		configLoadFailedIssue.Id():         configLoadFailedIssue,
		checksumMismatchIssue.Id():         checksumMismatchIssue,
		permissionDeniedIssue.Id():         permissionDeniedIssue,
		runtimeModuleUnavailableIssue.Id(): runtimeModuleUnavailableIssue,
	}
)

func Values() []*Issue {
	return slices.Collect(maps.Values(issues))
}

func Get(id Id) *Issue {
	return issues[id]
}
