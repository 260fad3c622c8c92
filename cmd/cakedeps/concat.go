// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/cakedeps/cakedeps/internal/artifact"
	"github.com/cakedeps/cakedeps/internal/issue"
	"github.com/cakedeps/cakedeps/pkg/types"
)

func newConcatCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var (
		ef        entryFlags
		watchMode bool
	)

	cmd := &cobra.Command{
		Use:   "concat [entry.cml]",
		Short: "Merge the entry file and its dependencies into one source file",
		Long: `Write the contents of every file reachable from the entry file, in
resolution order and separated by one blank line, into the output file.

The output is written to a temporary file next to it and renamed into place,
so a failed run never leaves a partial file behind.`,
		Example: `  cakedeps concat -o build/all.cml Main.cml`,
		Args:    maxEntries(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := ef.entries(args, false)
			if err != nil {
				return err
			}
			output, err := ef.requireOutput()
			if err != nil {
				return err
			}
			s, err := app.newSession(cmd, flags)
			if err != nil {
				return err
			}

			build := func(ctx context.Context) error {
				return runConcat(ctx, s, entries[0], output)
			}
			if watchMode {
				return runWatchMode(cmd, app, s, []types.FilesystemPath{output}, build)
			}
			return build(cmd.Context())
		},
	}

	ef.bind(cmd, "file to write the merged source to (required)")
	cmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "re-run when a source file changes")

	return cmd
}

func runConcat(ctx context.Context, s *session, entry, output types.FilesystemPath) error {
	closure, err := s.resolve(ctx, entry)
	if err != nil {
		return err
	}
	if err := artifact.WriteConcatenation(output, closure.Files); err != nil {
		return issue.NewErrorContext().
			WithOperation("write concatenation").
			WithResource(string(output)).
			WithSuggestion("Check that the output directory is writable").
			Wrap(err).
			BuildError()
	}
	s.logger.Info("wrote merged source", "file", output, "modules", len(closure.Files))
	return nil
}
