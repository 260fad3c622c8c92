// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrInvalidFilesystemPath is the sentinel error wrapped by InvalidFilesystemPathError.
var ErrInvalidFilesystemPath = errors.New("invalid filesystem path")

type (
	// FilesystemPath is a source, output or directory path as the user
	// spelled it. It is only made absolute for identity checks, so messages
	// keep the user's spelling.
	FilesystemPath string

	// InvalidFilesystemPathError reports an empty or blank path.
	InvalidFilesystemPathError struct {
		Value FilesystemPath
	}
)

func (p FilesystemPath) String() string { return string(p) }

// Validate rejects empty and whitespace-only paths.
func (p FilesystemPath) Validate() error {
	if strings.TrimSpace(string(p)) == "" {
		return &InvalidFilesystemPathError{Value: p}
	}
	return nil
}

func (p FilesystemPath) Dir() FilesystemPath   { return FilesystemPath(filepath.Dir(string(p))) }
func (p FilesystemPath) Clean() FilesystemPath { return FilesystemPath(filepath.Clean(string(p))) }

// Join appends elem with the OS separator and cleans the result.
func (p FilesystemPath) Join(elem ...string) FilesystemPath {
	return FilesystemPath(filepath.Join(append([]string{string(p)}, elem...)...))
}

// Abs returns the absolute, cleaned form of p.
func (p FilesystemPath) Abs() (FilesystemPath, error) {
	abs, err := filepath.Abs(string(p))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path of %s: %w", p, err)
	}
	return FilesystemPath(abs), nil
}

// Rel returns p relative to base and whether such a form exists.
func (p FilesystemPath) Rel(base FilesystemPath) (FilesystemPath, bool) {
	rel, err := filepath.Rel(string(base), string(p))
	if err != nil {
		return p, false
	}
	return FilesystemPath(rel), true
}

// Within reports whether p lies strictly below dir. Both are compared
// lexically, so pass absolute paths when the spellings may differ.
func (p FilesystemPath) Within(dir FilesystemPath) bool {
	rel, ok := p.Rel(dir)
	if !ok || rel == "." || rel == ".." {
		return false
	}
	return !strings.HasPrefix(string(rel), ".."+string(filepath.Separator))
}

func (e *InvalidFilesystemPathError) Error() string {
	return fmt.Sprintf("invalid filesystem path %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidFilesystemPath.
func (e *InvalidFilesystemPathError) Unwrap() error { return ErrInvalidFilesystemPath }
