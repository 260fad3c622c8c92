// SPDX-License-Identifier: MPL-2.0

package cakemod

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"

	"github.com/cakedeps/cakedeps/internal/dag"
	"github.com/cakedeps/cakedeps/pkg/types"

	"github.com/charmbracelet/log"
)

const (
	unvisited visitState = iota
	inProgress
	done
)

type (
	// DeclarationReader returns the direct dependencies of a file.
	// *Reader is the production implementation.
	DeclarationReader interface {
		ReadDeclarations(path types.FilesystemPath) ([]types.FilesystemPath, error)
	}

	// Builder computes the transitive closure of an entry file.
	Builder struct {
		reader DeclarationReader
		logger *log.Logger
	}

	// BuilderOption configures a Builder.
	BuilderOption func(*Builder)

	// Closure is the result of a resolution: every file reachable from Entry,
	// each exactly once, ordered so that dependencies precede dependents.
	Closure struct {
		// Entry is the file the resolution started from. It is always the
		// last element of Files.
		Entry types.FilesystemPath
		// Files is the resolution order.
		Files []types.FilesystemPath

		deps  map[types.FilesystemPath][]types.FilesystemPath
		index map[string]int
	}

	visitState uint8
)

// WithLogger sets the logger used for traversal debug output.
func WithLogger(l *log.Logger) BuilderOption {
	return func(b *Builder) { b.logger = l }
}

// NewBuilder creates a Builder that discovers edges through reader.
func NewBuilder(reader DeclarationReader, opts ...BuilderOption) *Builder {
	b := &Builder{
		reader: reader,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ResolveOrder returns the resolution order of entry using reader.
func ResolveOrder(ctx context.Context, reader DeclarationReader, entry types.FilesystemPath) ([]types.FilesystemPath, error) {
	c, err := NewBuilder(reader).Resolve(ctx, entry)
	if err != nil {
		return nil, err
	}
	return c.Files, nil
}

// Resolve walks the dependencies of entry depth-first and returns them in
// post-order. Each file is read at most once. A file reached again while it
// is still being resolved is a *CyclicDependencyError. Any error aborts the
// walk and no partial result is returned.
//
// Traversal state lives in maps owned by this call:
//   - state tracks unvisited / inProgress / done per normalized path.
//   - stack holds the files on the current dependency chain, used to name
//     the cycle when one is found.
func (b *Builder) Resolve(ctx context.Context, entry types.FilesystemPath) (*Closure, error) {
	if err := entry.Validate(); err != nil {
		return nil, fmt.Errorf("entry file: %w", err)
	}

	entry = entry.Clean()
	c := &Closure{
		Entry: entry,
		deps:  make(map[types.FilesystemPath][]types.FilesystemPath),
		index: make(map[string]int),
	}

	state := make(map[string]visitState)
	display := make(map[string]types.FilesystemPath)
	var (
		stack     []types.FilesystemPath
		stackKeys []string
	)

	var visit func(path, referrer types.FilesystemPath) (string, error)
	visit = func(path, referrer types.FilesystemPath) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("resolve %s canceled: %w", entry, err)
		}

		path = path.Clean()
		key := identity(path)

		switch state[key] {
		case done:
			return key, nil
		case inProgress:
			start := slices.Index(stackKeys, key)
			cycle := slices.Clone(stack[start:])
			cycle = append(cycle, display[key])
			return "", &CyclicDependencyError{Cycle: cycle}
		case unvisited:
		}

		state[key] = inProgress
		display[key] = path
		stack = append(stack, path)
		stackKeys = append(stackKeys, key)

		b.logger.Debug("resolving", "file", path, "depth", len(stack))

		deps, err := b.reader.ReadDeclarations(path)
		if err != nil {
			var nf *NotFoundError
			if errors.As(err, &nf) && nf.Referrer == "" && referrer != "" {
				nf.Referrer = referrer
			}
			return "", err
		}

		resolved := make([]types.FilesystemPath, 0, len(deps))
		for _, dep := range deps {
			depKey, err := visit(dep, path)
			if err != nil {
				return "", err
			}
			resolved = append(resolved, display[depKey])
		}

		stack = stack[:len(stack)-1]
		stackKeys = stackKeys[:len(stackKeys)-1]
		state[key] = done

		c.index[key] = len(c.Files)
		c.Files = append(c.Files, path)
		c.deps[path] = resolved
		return key, nil
	}

	if _, err := visit(entry, ""); err != nil {
		return nil, err
	}

	b.logger.Debug("resolved closure", "entry", entry, "files", len(c.Files))
	return c, nil
}

// Deps returns the direct dependencies of path in declaration order, using
// the same path spelling as Files. Duplicate declarations are kept.
func (c *Closure) Deps(path types.FilesystemPath) []types.FilesystemPath {
	if i, ok := c.index[identity(path.Clean())]; ok {
		return slices.Clone(c.deps[c.Files[i]])
	}
	return nil
}

// Graph materializes the closure as a dag.Graph. Nodes are the display paths
// in resolution order; an edge runs from a dependency to its dependent.
func (c *Closure) Graph() *dag.Graph {
	g := dag.New()
	for _, f := range c.Files {
		g.AddNode(string(f))
	}
	for _, f := range c.Files {
		for _, dep := range c.deps[f] {
			g.AddEdge(string(dep), string(f))
		}
	}
	return g
}

// Contains reports whether path is part of the closure. Paths are compared
// by their normalized form.
func (c *Closure) Contains(path types.FilesystemPath) bool {
	_, ok := c.index[identity(path.Clean())]
	return ok
}

// Position returns the index of path in Files, or -1.
func (c *Closure) Position(path types.FilesystemPath) int {
	if i, ok := c.index[identity(path.Clean())]; ok {
		return i
	}
	return -1
}

// identity returns the normalized form used to decide whether two paths name
// the same file: absolute, cleaned and, when the file exists, with symlinks
// resolved.
func identity(path types.FilesystemPath) string {
	abs, err := filepath.Abs(string(path))
	if err != nil {
		return string(path)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return abs
}
