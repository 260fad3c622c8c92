// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/cakedeps/cakedeps/internal/artifact"
	"github.com/cakedeps/cakedeps/internal/watch"
	"github.com/cakedeps/cakedeps/pkg/cakemod"
	"github.com/cakedeps/cakedeps/pkg/types"
)

func newUnusedCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var (
		ef      entryFlags
		exclude []string
	)

	cmd := &cobra.Command{
		Use:   "unused [entry.cml...]",
		Short: "List source files no entry file depends on",
		Long: `Scan the project root for .cml files and print those that are not
reachable from any of the entry files. The build directory is skipped.`,
		Example: `  cakedeps unused Main.cml
  cakedeps unused --exclude 'examples/**' App.cml Test.cml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := ef.entries(args, true)
			if err != nil {
				return err
			}
			for _, pattern := range exclude {
				if err := watch.GlobPattern(pattern).Validate(); err != nil {
					return usageError(fmt.Errorf("--exclude: %w", err))
				}
			}
			s, err := app.newSession(cmd, flags)
			if err != nil {
				return err
			}

			unused, err := findUnused(cmd.Context(), s, entries, exclude)
			if err != nil {
				return err
			}
			return artifact.WriteTo(types.FilesystemPath(ef.output), app.stdout, func(w io.Writer) error {
				for _, p := range unused {
					if _, err := fmt.Fprintln(w, p); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	ef.bind(cmd, "write the report to this file instead of stdout")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "glob of files to skip, relative to the root (repeatable)")

	return cmd
}

// findUnused returns the source files below the project root that no
// closure contains, sorted.
func findUnused(ctx context.Context, s *session, entries []types.FilesystemPath, exclude []string) ([]types.FilesystemPath, error) {
	closures, err := s.resolveAll(ctx, entries)
	if err != nil {
		return nil, err
	}

	exclude = append(slices.Clone(exclude), buildDirPattern(s)...)
	matches, err := doublestar.Glob(os.DirFS(string(s.root)), "**/*"+cakemod.Extension, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", s.root, err)
	}

	var unused []types.FilesystemPath
	for _, rel := range matches {
		if excluded(rel, exclude) {
			continue
		}
		p := s.root.Join(rel)
		if !slices.ContainsFunc(closures, func(c *cakemod.Closure) bool { return c.Contains(p) }) {
			unused = append(unused, p)
		}
	}
	slices.Sort(unused)
	s.logger.Debug("scanned sources", "root", s.root, "files", len(matches), "unused", len(unused))
	return unused, nil
}

func excluded(rel string, patterns []string) bool {
	return slices.ContainsFunc(patterns, func(p string) bool {
		ok, err := doublestar.Match(p, rel)
		return err == nil && ok
	})
}

// buildDirPattern excludes the configured build directory, which holds
// merged copies of the sources.
func buildDirPattern(s *session) []string {
	var out []string
	for _, g := range ignoredOutputs(s.root, []types.FilesystemPath{s.cfg.Toolchain.Pipeline().BuildDir}) {
		out = append(out, string(g))
	}
	return out
}
