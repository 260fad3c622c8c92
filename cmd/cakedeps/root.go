// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/cakedeps/cakedeps/internal/issue"
	"github.com/cakedeps/cakedeps/pkg/cakemod"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlagValues{}

	rootCmd := &cobra.Command{
		Use:   "cakedeps",
		Short: "Resolve CakeML module dependencies",
		Long: TitleStyle.Render("cakedeps") + SubtitleStyle.Render(" - dependency resolver for CakeML projects") + `

Each source file may declare the modules it depends on in its first line:

  (* deps: Util @lib.Parser *)

Plain names are resolved next to the declaring file, names starting with '@'
against the project root. cakedeps walks these declarations from an entry
file and orders every reachable file so dependencies come first.

` + SubtitleStyle.Render("Examples:") + `
  cakedeps list Main.cml                     Print the build order
  cakedeps concat -o build/all.cml Main.cml  Merge sources into one file
  cakedeps compile -o bin/main Main.cml      Compile and link a binary
  cakedeps graph --format mermaid Main.cml   Export the dependency graph`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/cakedeps/config.cue, then ./cakedeps.cue)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging and detailed error help")
	pf.StringVar(&flags.root, "root", "", "project root for @-qualified modules (default \".\")")
	pf.StringVar(&flags.scheme, "scheme", "", fmt.Sprintf("declaration marker scheme %v (default \"deps\")", cakemod.SchemeNames()))
	pf.BoolVar(&flags.strict, "strict", false, "reject irregular spacing inside declarations")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	rootCmd.AddCommand(
		newListCommand(app, flags),
		newConcatCommand(app, flags),
		newCompileCommand(app, flags),
		newGraphCommand(app, flags),
		newUnusedCommand(app, flags),
		newConfigCommand(app, flags),
	)

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the status matching the error kind.
// This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	if err := run(context.Background(), app, os.Args[1:]); err != nil {
		os.Exit(int(exitCodeFor(err)))
	}
}

// run executes the command tree with args. Errors are reported on the App's
// stderr before being returned.
func run(ctx context.Context, app *App, args []string) error {
	rootCmd := NewRootCommand(app)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	err := fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			fmt.Fprintln(w, ErrorStyle.Render("Error:")+" "+formatErrorForDisplay(err, app.verbose))
		}),
	)
	if err != nil && app.verbose {
		app.renderIssue(err)
		code := exitCodeFor(err)
		fmt.Fprintf(app.stderr, "exit status %s (%s)\n", code, code.Name())
	}
	return err
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// renderIssue prints the catalog help for err, if there is one.
func (a *App) renderIssue(err error) {
	id, ok := issueFor(err)
	if !ok {
		return
	}
	rendered, renderErr := issue.Get(id).Render(a.glamourStyle())
	if renderErr != nil {
		return
	}
	fmt.Fprint(a.stderr, rendered)
}
