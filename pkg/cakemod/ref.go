// SPDX-License-Identifier: MPL-2.0

package cakemod

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/cakedeps/cakedeps/pkg/types"
)

const (
	// Extension is the file extension of every CakeML source file.
	Extension = ".cml"
	// RootQualifier marks a module reference that resolves against the project root.
	RootQualifier = "@"
	// moduleSeparator separates the segments of a module reference.
	moduleSeparator = "."
)

// ErrInvalidModuleRef is the sentinel error wrapped by InvalidModuleRefError.
var ErrInvalidModuleRef = errors.New("invalid module reference")

type (
	// ModuleRef is a single dependency token such as "Util.Strings" or
	// "@Lib.Json".
	ModuleRef string

	// InvalidModuleRefError is returned when a ModuleRef cannot name a file.
	InvalidModuleRefError struct {
		Value  ModuleRef
		Reason string
	}
)

// String returns the raw token.
func (r ModuleRef) String() string { return string(r) }

// IsRootQualified reports whether r resolves against the project root.
func (r ModuleRef) IsRootQualified() bool {
	return strings.HasPrefix(string(r), RootQualifier)
}

// Name returns the reference without its root qualifier.
func (r ModuleRef) Name() string {
	return strings.TrimPrefix(string(r), RootQualifier)
}

// Validate checks that every dot-separated segment is non-empty and free of
// whitespace and path separators.
func (r ModuleRef) Validate() error {
	name := r.Name()
	if name == "" {
		return &InvalidModuleRefError{Value: r, Reason: "empty module name"}
	}
	if strings.ContainsAny(name, `/\`) {
		return &InvalidModuleRefError{Value: r, Reason: "path separators are not allowed"}
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return &InvalidModuleRefError{Value: r, Reason: "whitespace is not allowed"}
	}
	for _, seg := range strings.Split(name, moduleSeparator) {
		if seg == "" {
			return &InvalidModuleRefError{Value: r, Reason: "empty path segment"}
		}
	}
	return nil
}

// RelPath returns the file path the reference names, relative to its base
// directory: "A.B" and "@A.B" both become "A/B.cml".
func (r ModuleRef) RelPath() string {
	return strings.ReplaceAll(r.Name(), moduleSeparator, string(filepath.Separator)) + Extension
}

// Resolve returns the file the reference names. Root-qualified references are
// joined with root, all others with declaringDir.
func (r ModuleRef) Resolve(declaringDir, root types.FilesystemPath) types.FilesystemPath {
	if r.IsRootQualified() {
		return root.Join(r.RelPath())
	}
	return declaringDir.Join(r.RelPath())
}

// Error implements the error interface.
func (e *InvalidModuleRefError) Error() string {
	return fmt.Sprintf("invalid module reference %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidModuleRef for errors.Is() compatibility.
func (e *InvalidModuleRefError) Unwrap() error { return ErrInvalidModuleRef }
