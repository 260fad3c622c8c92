// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/cakedeps/cakedeps/internal/artifact"
	"github.com/cakedeps/cakedeps/pkg/types"
)

func newGraphCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var (
		ef     entryFlags
		format artifact.GraphFormat
	)

	cmd := &cobra.Command{
		Use:   "graph [entry.cml]",
		Short: "Export the dependency graph of an entry file",
		Long: `Render every file reachable from the entry file and the edges between
them. Edges point from a dependency to the file that declares it, so the
arrows follow the build order.

Formats: dot (Graphviz, default) and mermaid.`,
		Example: `  cakedeps graph Main.cml | dot -Tsvg > deps.svg
  cakedeps graph --format mermaid -o docs/deps.mmd Main.cml`,
		Args: maxEntries(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := ef.entries(args, false)
			if err != nil {
				return err
			}
			s, err := app.newSession(cmd, flags)
			if err != nil {
				return err
			}

			closure, err := s.resolve(cmd.Context(), entries[0])
			if err != nil {
				return err
			}
			return artifact.WriteTo(types.FilesystemPath(ef.output), app.stdout, func(w io.Writer) error {
				return artifact.WriteGraph(w, closure.Graph(), format)
			})
		},
	}

	ef.bind(cmd, "write the graph to this file instead of stdout")
	graphFormats := []string{string(artifact.GraphDOT), string(artifact.GraphMermaid)}
	cmd.Flags().VarP(newChoiceFlag(&format, artifact.GraphDOT, graphFormats, artifact.GraphFormat.Validate),
		"format", "f", "graph format")

	return cmd
}
