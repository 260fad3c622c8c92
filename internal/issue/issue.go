// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

// Id identifies an entry of the issue catalog.
type Id int

const (
	FileNotFoundId Id = iota + 1
	MalformedDeclarationId
	DependencyCycleId
	ToolchainFailedId
	ConfigLoadFailedId
	UnknownSchemeId
	UnknownFormatId
	PermissionDeniedId
	MissingOutputId
)

// MarkdownMsg is the Markdown body of an issue.
type MarkdownMsg string

// Issue is extended help for one kind of failure, shown in verbose mode.
type Issue struct {
	id    Id
	mdMsg MarkdownMsg
	// related lists cakedeps subcommands that help diagnose the failure.
	related []string
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// Related returns the subcommands listed under "See also".
func (i *Issue) Related() []string {
	return slices.Clone(i.related)
}

// Render renders the issue with the named glamour style.
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.related) > 0 {
		md.WriteString("\n\n## See also:\n")
		for _, cmd := range i.related {
			md.WriteString("\n- `cakedeps " + cmd + " --help`")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	fileNotFoundIssue = &Issue{
		id: FileNotFoundId,
		mdMsg: `
# Source file not found!

A source file named on the command line, or declared as a dependency,
does not exist.

## Things you can try:
- Check the spelling of the dependency in the first line of the referring file
- Remember that plain names are resolved next to the referring file:
~~~
(* deps: Util *)        looks for ./Util.cml
(* deps: @lib.Util *)   looks for <root>/lib/Util.cml
~~~

- Point the resolver at the right project root:
~~~
$ cakedeps list --root ./src Main.cml
~~~`,
		related: []string{"list"},
	}

	malformedDeclarationIssue = &Issue{
		id: MalformedDeclarationId,
		mdMsg: `
# Malformed dependency declaration!

The first line of a source file looks like a dependency declaration but
one of its module names is not valid.

## Valid module references:
- Dot-separated identifiers: ` + "`Util`" + `, ` + "`lib.Parser`" + `
- Root-qualified with a leading ` + "`@`" + `: ` + "`@std.List`" + `

## Things you can try:
- Separate module names with spaces, not commas
- Close the comment on the same line:
~~~
(* deps: A B.C @lib.D *)
~~~

- Run with --verbose to see the offending token`,
		related: []string{"list"},
	}

	dependencyCycleIssue = &Issue{
		id: DependencyCycleId,
		mdMsg: `
# Dependency cycle detected!

The source files depend on each other in a loop, so no build order exists.

## Things you can try:
- Read the cycle path printed above, first file to last
- Move the shared definitions into a new file that both sides depend on
- Inspect the graph:
~~~
$ cakedeps graph Main.cml
~~~`,
		related: []string{"graph"},
	}

	toolchainFailedIssue = &Issue{
		id: ToolchainFailedId,
		mdMsg: `
# Compilation failed!

The compiler or linker stage exited with an error. Its output is shown above.

## Things you can try:
- Check that the compiler and C toolchain are on your PATH
- Inspect the concatenated source in the build directory
- Override the stage commands in your config file:
~~~cue
toolchain: {
	compiler: "cake --target=x64 < \"$CAKE_INPUT\" > \"$CAKE_OUTPUT\""
	linker:   "cc -o \"$CAKE_OUTPUT\" \"$CAKE_INPUT\" \"$CAKE_RUNTIME\""
}
~~~`,
		related: []string{"compile", "concat"},
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Could not load the cakedeps configuration file.

## Configuration file locations:
- Linux: ~/.config/cakedeps/config.cue
- macOS: ~/Library/Application Support/cakedeps/config.cue
- Windows: %APPDATA%\cakedeps\config.cue
- Project: ./cakedeps.cue

## Things you can try:
- Check the file for CUE syntax errors
- Regenerate the default configuration:
~~~
$ cakedeps config init --force
~~~

- Inspect the effective settings:
~~~
$ cakedeps config show
~~~`,
		related: []string{"config"},
	}

	unknownSchemeIssue = &Issue{
		id: UnknownSchemeId,
		mdMsg: `
# Unknown declaration scheme!

The requested declaration marker scheme is not supported.

## Supported schemes:
- ` + "`deps`" + `: ` + "`(* deps: A B *)`" + `
- ` + "`open`" + `: ` + "`(* open A B *)`",
	}

	unknownFormatIssue = &Issue{
		id: UnknownFormatId,
		mdMsg: `
# Unknown output format!

The requested output format is not supported by this command.

## Things you can try:
- List formats: lines, joined, json, yaml, deps
- Graph formats: dot, mermaid
- See the command help:
~~~
$ cakedeps list --help
~~~`,
		related: []string{"list", "graph"},
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

You don't have permission to read a source file or write an output file.

## Things you can try:
- Check file and directory permissions
- Write the output to a directory you own`,
	}

	missingOutputIssue = &Issue{
		id: MissingOutputId,
		mdMsg: `
# No output file given!

This command writes a file and needs to know where.

## Things you can try:
~~~
$ cakedeps concat --output build/all.cml Main.cml
$ cakedeps compile --output build/main Main.cml
~~~`,
		related: []string{"concat", "compile"},
	}

	issues = map[Id]*Issue{
		fileNotFoundIssue.Id():         fileNotFoundIssue,
		malformedDeclarationIssue.Id(): malformedDeclarationIssue,
		dependencyCycleIssue.Id():      dependencyCycleIssue,
		toolchainFailedIssue.Id():      toolchainFailedIssue,
		configLoadFailedIssue.Id():     configLoadFailedIssue,
		unknownSchemeIssue.Id():        unknownSchemeIssue,
		unknownFormatIssue.Id():        unknownFormatIssue,
		permissionDeniedIssue.Id():     permissionDeniedIssue,
		missingOutputIssue.Id():        missingOutputIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id - b.id) })
	return out
}

// Get returns the entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
