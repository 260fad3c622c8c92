// SPDX-License-Identifier: MPL-2.0

package cakemod

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cakedeps/cakedeps/pkg/types"

	"github.com/charmbracelet/log"
)

type (
	// Reader extracts the dependency declaration from the first line of a file
	// and resolves each reference to a file path.
	Reader struct {
		root   types.FilesystemPath
		scheme MarkerScheme
		strict bool
		cache  *DeclCache
		logger *log.Logger
	}

	// ReaderOption configures a Reader.
	ReaderOption func(*Reader)
)

// WithScheme selects the marker scheme recognized by the reader.
func WithScheme(s MarkerScheme) ReaderOption {
	return func(r *Reader) { r.scheme = s }
}

// WithStrict makes malformed spacing inside a declaration an error instead of
// being normalized away.
func WithStrict(strict bool) ReaderOption {
	return func(r *Reader) { r.strict = strict }
}

// WithCache reuses parsed declarations of unchanged files.
func WithCache(c *DeclCache) ReaderOption {
	return func(r *Reader) { r.cache = c }
}

// WithReaderLogger sets the logger used for debug output.
func WithReaderLogger(l *log.Logger) ReaderOption {
	return func(r *Reader) { r.logger = l }
}

// NewReader creates a Reader that resolves root-qualified references against root.
// An empty root means the current directory.
func NewReader(root types.FilesystemPath, opts ...ReaderOption) *Reader {
	if root == "" {
		root = "."
	}
	r := &Reader{
		root:   root.Clean(),
		scheme: DefaultScheme(),
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Root returns the project root used for root-qualified references.
func (r *Reader) Root() types.FilesystemPath { return r.root }

// Scheme returns the marker scheme the reader recognizes.
func (r *Reader) Scheme() MarkerScheme { return r.scheme }

// ReadDeclarations returns the files declared as dependencies by path, in
// declaration order. A file without a declaration line has no dependencies.
// A missing or unreadable file is a *NotFoundError.
func (r *Reader) ReadDeclarations(path types.FilesystemPath) ([]types.FilesystemPath, error) {
	refs, err := r.readRefs(path)
	if err != nil {
		return nil, err
	}

	dir := path.Dir()
	deps := make([]types.FilesystemPath, len(refs))
	for i, ref := range refs {
		deps[i] = ref.Resolve(dir, r.root)
	}
	return deps, nil
}

func (r *Reader) readRefs(path types.FilesystemPath) ([]ModuleRef, error) {
	f, err := os.Open(string(path))
	if err != nil {
		return nil, &NotFoundError{Path: path, Err: unwrapPathError(err)}
	}
	defer f.Close() //nolint:errcheck // read-only file

	info, err := f.Stat()
	if err != nil {
		return nil, &NotFoundError{Path: path, Err: unwrapPathError(err)}
	}
	if info.IsDir() {
		return nil, &NotFoundError{Path: path, Err: errors.New("is a directory")}
	}

	var key string
	if r.cache != nil {
		key = identity(path)
		if refs, ok := r.cache.lookup(key, info, r.scheme.Name, r.strict); ok {
			r.logger.Debug("declaration cache hit", "file", path, "modules", len(refs))
			return refs, nil
		}
	}

	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, &NotFoundError{Path: path, Err: fmt.Errorf("read first line: %w", err)}
	}

	refs, err := ParseDeclaration(line, r.scheme, r.strict)
	if err != nil {
		var malformed *MalformedDeclarationError
		if errors.As(err, &malformed) {
			malformed.Path = path
		}
		return nil, err
	}
	r.logger.Debug("read declaration", "file", path, "modules", len(refs))

	if r.cache != nil {
		r.cache.store(key, info, r.scheme.Name, r.strict, refs)
	}
	return refs, nil
}

// unwrapPathError drops the *fs.PathError wrapper since NotFoundError already
// names the path.
func unwrapPathError(err error) error {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err
	}
	return err
}
