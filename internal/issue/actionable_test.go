// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *ActionableError
		want string
	}{
		{"operation", &ActionableError{Operation: "compile program"}, "failed to compile program"},
		{"resource", &ActionableError{Operation: "resolve dependencies", Resource: "Main.cml"}, "failed to resolve dependencies: Main.cml"},
		{
			"cause without resource",
			&ActionableError{Operation: "write concatenation", Cause: errors.New("disk full")},
			"failed to write concatenation: disk full",
		},
		{
			"everything",
			&ActionableError{Operation: "resolve dependencies", Resource: "Main.cml", Cause: errors.New("dependency cycle detected: Main.cml -> Main.cml")},
			"failed to resolve dependencies: Main.cml: dependency cycle detected: Main.cml -> Main.cml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("open Lib.cml: %w", fs.ErrNotExist)
	err := NewErrorContext().WithOperation("resolve dependencies").Wrap(cause).BuildError()

	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("errors.Is should reach the wrapped sentinel")
	}
	var ae *ActionableError
	if !errors.As(err, &ae) || ae.Cause != cause {
		t.Errorf("errors.As() = %v, want cause %v", ae, cause)
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	inner := errors.New("no such file or directory")
	err := &ActionableError{
		Operation:   "resolve dependencies",
		Resource:    "Main.cml",
		Suggestions: []string{"Check the entry file path", "Use --root"},
		Cause:       fmt.Errorf("module file not found: %w", inner),
	}

	short := err.Format(false)
	wantShort := "failed to resolve dependencies: Main.cml: module file not found: no such file or directory\n" +
		"\n  • Check the entry file path" +
		"\n  • Use --root"
	if short != wantShort {
		t.Errorf("Format(false) =\n%s\nwant\n%s", short, wantShort)
	}

	long := err.Format(true)
	if !strings.HasPrefix(long, wantShort) {
		t.Errorf("Format(true) should start with the short form:\n%s", long)
	}
	for _, want := range []string{
		"Error chain:",
		"\n  1. module file not found: no such file or directory",
		"\n  2. no such file or directory",
	} {
		if !strings.Contains(long, want) {
			t.Errorf("Format(true) missing %q:\n%s", want, long)
		}
	}

	bare := (&ActionableError{Operation: "compile program"}).Format(true)
	if bare != "failed to compile program" {
		t.Errorf("Format(true) without cause or hints = %q", bare)
	}
}

func TestErrorContext_BuildError(t *testing.T) {
	t.Parallel()

	if err := NewErrorContext().WithResource("Main.cml").Wrap(errors.New("x")).BuildError(); err != nil {
		t.Errorf("BuildError() without operation = %v, want nil", err)
	}

	err := NewErrorContext().
		WithOperation("compile program").
		WithResource("bin/main").
		WithSuggestion("Check toolchain.compiler").
		WithSuggestions("Run with --verbose", "Inspect build/main.cml").
		BuildError()

	var ae *ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("BuildError() = %T, want *ActionableError", err)
	}
	if ae.Operation != "compile program" || ae.Resource != "bin/main" {
		t.Errorf("unexpected fields: %+v", ae)
	}
	if len(ae.Suggestions) != 3 || ae.Suggestions[2] != "Inspect build/main.cml" {
		t.Errorf("Suggestions = %v", ae.Suggestions)
	}
}

func TestErrorContext_PreparedBeforeFailure(t *testing.T) {
	t.Parallel()

	ec := NewErrorContext().WithOperation("write configuration").WithResource("config.cue")
	first := ec.WithSuggestion("Use --force").Wrap(errors.New("exists")).BuildError()
	second := ec.Wrap(errors.New("read-only")).BuildError()

	if first.Error() == second.Error() {
		t.Error("each BuildError call should snapshot the current cause")
	}
	if !strings.HasSuffix(first.Error(), "exists") {
		t.Errorf("first = %q", first.Error())
	}
}
