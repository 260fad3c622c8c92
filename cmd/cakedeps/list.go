// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/cakedeps/cakedeps/internal/artifact"
	"github.com/cakedeps/cakedeps/pkg/types"
)

func newListCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var (
		ef        entryFlags
		format    artifact.ListFormat
		watchMode bool
	)

	cmd := &cobra.Command{
		Use:   "list [entry.cml...]",
		Short: "Print the resolution order of an entry file",
		Long: `Print every file reachable from the entry file, dependencies first.

Several entry files may be given; each is resolved on its own and the
listings are printed in argument order, separated by a blank line.

Formats:
  lines   one path per line (default)
  joined  all paths on one space-separated line
  json    a JSON array
  yaml    a YAML sequence
  deps    "file: dep1, dep2" for every file`,
		Example: `  cakedeps list Main.cml
  cakedeps list --format deps --main Main.cml
  cakedeps list --format json -o build/order.json App.cml Test.cml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := ef.entries(args, true)
			if err != nil {
				return err
			}
			s, err := app.newSession(cmd, flags)
			if err != nil {
				return err
			}

			output := types.FilesystemPath(ef.output)
			build := func(ctx context.Context) error {
				return runList(ctx, app, s, entries, format, output)
			}
			if watchMode {
				return runWatchMode(cmd, app, s, []types.FilesystemPath{output}, build)
			}
			return build(cmd.Context())
		},
	}

	ef.bind(cmd, "write the listing to this file instead of stdout")
	cmd.Flags().VarP(newChoiceFlag(&format, artifact.FormatLines, artifact.ListFormatNames(), artifact.ListFormat.Validate),
		"format", "f", "output format")
	cmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "re-run when a source file changes")

	return cmd
}

// runList resolves all entries before writing anything, so a failure leaves
// no partial listing behind.
func runList(ctx context.Context, app *App, s *session, entries []types.FilesystemPath, format artifact.ListFormat, output types.FilesystemPath) error {
	closures, err := s.resolveAll(ctx, entries)
	if err != nil {
		return err
	}
	return artifact.WriteTo(output, app.stdout, func(w io.Writer) error {
		for i, c := range closures {
			if i > 0 {
				if _, err := io.WriteString(w, "\n"); err != nil {
					return err
				}
			}
			if err := artifact.WriteListing(w, c, format); err != nil {
				return err
			}
		}
		return nil
	})
}
