// SPDX-License-Identifier: MPL-2.0

package cakemod

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cakedeps/cakedeps/pkg/types"
)

var (
	// ErrNotFound is wrapped by NotFoundError.
	ErrNotFound = errors.New("module file not found")
	// ErrMalformedDeclaration is wrapped by MalformedDeclarationError.
	ErrMalformedDeclaration = errors.New("malformed dependency declaration")
	// ErrCyclicDependency is wrapped by CyclicDependencyError.
	ErrCyclicDependency = errors.New("cyclic dependency")
)

type (
	// NotFoundError reports a file that does not exist or cannot be read.
	// Referrer is the file whose declaration named Path; it is empty for the
	// entry file.
	NotFoundError struct {
		Path     types.FilesystemPath
		Referrer types.FilesystemPath
		Err      error
	}

	// MalformedDeclarationError reports a declaration line that matched the
	// markers but could not be parsed.
	MalformedDeclarationError struct {
		Path   types.FilesystemPath
		Line   string
		Reason string
		Err    error
	}

	// CyclicDependencyError reports a file that depends on itself, directly or
	// through other files. Cycle starts and ends with the same file.
	CyclicDependencyError struct {
		Cycle []types.FilesystemPath
	}
)

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	var msg strings.Builder
	msg.WriteString("module file not found: ")
	msg.WriteString(string(e.Path))
	if e.Referrer != "" {
		fmt.Fprintf(&msg, " (required by %s)", e.Referrer)
	}
	if e.Err != nil {
		msg.WriteString(": ")
		msg.WriteString(e.Err.Error())
	}
	return msg.String()
}

// Unwrap exposes ErrNotFound and the underlying filesystem error.
func (e *NotFoundError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrNotFound}
	}
	return []error{ErrNotFound, e.Err}
}

// Error implements the error interface.
func (e *MalformedDeclarationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("malformed dependency declaration in %s: %s: %q", e.Path, e.Reason, e.Line)
	}
	return fmt.Sprintf("malformed dependency declaration: %s: %q", e.Reason, e.Line)
}

// Unwrap exposes ErrMalformedDeclaration and the underlying cause, if any.
func (e *MalformedDeclarationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedDeclaration}
	}
	return []error{ErrMalformedDeclaration, e.Err}
}

// Error implements the error interface.
func (e *CyclicDependencyError) Error() string {
	parts := make([]string, len(e.Cycle))
	for i, p := range e.Cycle {
		parts[i] = string(p)
	}
	return "dependency cycle detected: " + strings.Join(parts, " -> ")
}

// Unwrap returns ErrCyclicDependency for errors.Is() compatibility.
func (e *CyclicDependencyError) Unwrap() error { return ErrCyclicDependency }
