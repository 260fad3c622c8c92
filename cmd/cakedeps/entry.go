// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cakedeps/cakedeps/internal/config"
	"github.com/cakedeps/cakedeps/internal/issue"
	"github.com/cakedeps/cakedeps/pkg/cakemod"
	"github.com/cakedeps/cakedeps/pkg/types"
)

const (
	outputFlag = "--output"
	mainFlag   = "main"
)

// entryFlags binds the entry-file flags shared by every resolving command.
type entryFlags struct {
	main   string
	output string
}

func (e *entryFlags) bind(cmd *cobra.Command, outputUsage string) {
	cmd.Flags().StringVar(&e.main, mainFlag, "", "entry file (alternative to the positional argument)")
	cmd.Flags().StringVarP(&e.output, "output", "o", "", outputUsage)
}

// entries returns the entry files named by --main or the positional
// arguments. Only commands that accept several entries pass multi.
func (e *entryFlags) entries(args []string, multi bool) ([]types.FilesystemPath, error) {
	switch {
	case e.main != "" && len(args) > 0:
		return nil, usageError(errors.New("--main and a positional entry file cannot be combined"))
	case e.main != "":
		return []types.FilesystemPath{types.FilesystemPath(e.main)}, nil
	case len(args) == 0:
		return nil, usageError(errors.New("no entry file given (pass it as an argument or with --main)"))
	case len(args) > 1 && !multi:
		return nil, usageError(fmt.Errorf("expected one entry file, got %d", len(args)))
	}
	paths := make([]types.FilesystemPath, len(args))
	for i, arg := range args {
		paths[i] = types.FilesystemPath(arg)
	}
	return paths, nil
}

// requireOutput returns the --output path or a configuration error when it
// was not given.
func (e *entryFlags) requireOutput() (types.FilesystemPath, error) {
	if e.output == "" {
		return "", usageError(config.NewMissingError(outputFlag))
	}
	return types.FilesystemPath(e.output), nil
}

// validateEntry checks that the entry file exists, is a regular file and is
// readable before resolution starts.
func validateEntry(entry types.FilesystemPath) error {
	if err := entry.Validate(); err != nil {
		return &cakemod.NotFoundError{Path: entry, Err: err}
	}
	info, err := os.Stat(string(entry))
	if err != nil {
		return &cakemod.NotFoundError{Path: entry, Err: unwrapPath(err)}
	}
	if !info.Mode().IsRegular() {
		return &cakemod.NotFoundError{Path: entry, Err: errors.New("not a regular file")}
	}
	f, err := os.Open(string(entry))
	if err != nil {
		return &cakemod.NotFoundError{Path: entry, Err: unwrapPath(err)}
	}
	return f.Close()
}

// resolve validates entry and computes its closure.
func (s *session) resolve(ctx context.Context, entry types.FilesystemPath) (*cakemod.Closure, error) {
	if err := validateEntry(entry); err != nil {
		return nil, resolveError(entry, err)
	}
	closure, err := cakemod.NewBuilder(s.reader(), cakemod.WithLogger(s.logger)).Resolve(ctx, entry)
	if err != nil {
		return nil, resolveError(entry, err)
	}
	s.logger.Debug("resolved", "entry", entry, "files", len(closure.Files))
	return closure, nil
}

// resolveAll resolves every entry concurrently. Each resolution owns its
// traversal state; results keep the order of entries.
func (s *session) resolveAll(ctx context.Context, entries []types.FilesystemPath) ([]*cakemod.Closure, error) {
	closures := make([]*cakemod.Closure, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	for i, entry := range entries {
		g.Go(func() error {
			c, err := s.resolve(gctx, entry)
			if err != nil {
				return err
			}
			closures[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return closures, nil
}

// resolveError attaches remediation hints for the resolution failure kinds.
func resolveError(entry types.FilesystemPath, err error) error {
	ec := issue.NewErrorContext().
		WithOperation("resolve dependencies").
		WithResource(string(entry))

	var (
		notFound *cakemod.NotFoundError
		cycle    *cakemod.CyclicDependencyError
	)
	switch {
	case errors.As(err, &cycle):
		ec.WithSuggestion("Move the shared definitions into a file both sides depend on")
	case errors.Is(err, cakemod.ErrMalformedDeclaration):
		ec.WithSuggestions(
			"Module names are dot-separated identifiers, optionally prefixed with '@'",
			"Separate names with single spaces or drop --strict",
		)
	case errors.As(err, &notFound) && notFound.Referrer != "":
		ec.WithSuggestions(
			fmt.Sprintf("Check the declaration in the first line of %s", notFound.Referrer),
			"Use --root to set the directory '@' names are resolved against",
		)
	case errors.As(err, &notFound):
		ec.WithSuggestion("Check the entry file path")
	}
	return ec.Wrap(err).BuildError()
}

func unwrapPath(err error) error {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err
	}
	return err
}

// maxEntries rejects more than n positional entry files as a usage error.
func maxEntries(n int) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) > n {
			return usageError(fmt.Errorf("expected at most %d entry file(s), got %d", n, len(args)))
		}
		return nil
	}
}
