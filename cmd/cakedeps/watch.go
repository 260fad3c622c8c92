// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cakedeps/cakedeps/internal/watch"
	"github.com/cakedeps/cakedeps/pkg/types"
)

// runWatchMode runs build once, then again whenever a source file below the
// project root changes, until the command's context is canceled. Failed
// builds are reported and the watcher keeps running. generated lists files
// the build itself writes; they never trigger a rebuild.
func runWatchMode(cmd *cobra.Command, app *App, s *session, generated []types.FilesystemPath, build func(ctx context.Context) error) error {
	if err := s.enableCache(); err != nil {
		return err
	}
	debounce, err := s.cfg.Watch.DebounceDuration()
	if err != nil {
		return err
	}

	absRoot, err := s.root.Abs()
	if err != nil {
		return fmt.Errorf("resolve project root: %w", err)
	}

	rebuild := func(ctx context.Context) {
		if err := build(ctx); err != nil {
			fmt.Fprintln(app.stderr, WarningStyle.Render("!")+" "+formatErrorForDisplay(err, app.verbose))
			return
		}
		fmt.Fprintln(app.stderr, SuccessStyle.Render("✓")+" build up to date")
	}

	w, err := watch.New(watch.Config{
		Root:        s.root,
		Ignore:      ignoredOutputs(s.root, generated),
		Debounce:    debounce,
		ClearScreen: s.cfg.Watch.ClearScreen && isTerminal(app.stdout),
		Stdout:      app.stdout,
		Logger:      s.logger,
		OnChange: func(ctx context.Context, changed []string) error {
			s.forgetChanged(absRoot, changed)
			rebuild(ctx)
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	rebuild(cmd.Context())
	fmt.Fprintf(app.stderr, "%s watching %s for changes (Ctrl+C to stop)\n", CmdStyle.Render("→"), w.Root())
	return w.Run(cmd.Context())
}

// forgetChanged evicts the watcher's changed paths, relative to root, from
// the declaration cache.
func (s *session) forgetChanged(root types.FilesystemPath, changed []string) {
	if s.cache == nil {
		return
	}
	for _, rel := range changed {
		s.cache.Forget(root.Join(filepath.FromSlash(rel)))
	}
}

// ignoredOutputs turns generated paths that live below root into watch
// ignore patterns. Directories are ignored with everything inside them.
func ignoredOutputs(root types.FilesystemPath, generated []types.FilesystemPath) []watch.GlobPattern {
	absRoot, err := root.Abs()
	if err != nil {
		return nil
	}
	var patterns []watch.GlobPattern
	for _, p := range generated {
		if p == "" {
			continue
		}
		abs, err := p.Abs()
		if err != nil {
			continue
		}
		if !abs.Within(absRoot) {
			continue
		}
		rel, _ := abs.Rel(absRoot)
		slashed := filepath.ToSlash(string(rel))
		patterns = append(patterns, watch.GlobPattern(slashed), watch.GlobPattern(slashed+"/**"))
	}
	return patterns
}
