// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"testing"

	"github.com/spf13/pflag"

	"github.com/cakedeps/cakedeps/internal/artifact"
)

func TestChoiceFlag(t *testing.T) {
	t.Parallel()

	var format artifact.ListFormat
	fs := pflag.NewFlagSet("list", pflag.ContinueOnError)
	fs.VarP(newChoiceFlag(&format, artifact.FormatLines, artifact.ListFormatNames(), artifact.ListFormat.Validate), "format", "f", "output format")

	if format != artifact.FormatLines {
		t.Fatalf("default = %q, want %q", format, artifact.FormatLines)
	}
	if got := fs.Lookup("format").Value.Type(); got != "lines|joined|json|yaml|deps" {
		t.Errorf("Type() = %q", got)
	}

	if err := fs.Parse([]string{"-f", "json"}); err != nil {
		t.Fatalf("Parse(json): %v", err)
	}
	if format != artifact.FormatJSON {
		t.Errorf("format = %q, want json", format)
	}

	err := fs.Parse([]string{"--format", "xml"})
	if err == nil {
		t.Fatal("Parse(xml) should fail")
	}
	if format != artifact.FormatJSON {
		t.Errorf("rejected value changed the flag to %q", format)
	}
}

func TestChoiceFlag_SetReportsValidationError(t *testing.T) {
	t.Parallel()

	var format artifact.GraphFormat
	f := newChoiceFlag(&format, artifact.GraphDOT, []string{"dot", "mermaid"}, artifact.GraphFormat.Validate)

	if err := f.Set("png"); !errors.Is(err, artifact.ErrUnknownFormat) {
		t.Errorf("Set(png) = %v, want ErrUnknownFormat", err)
	}
	if err := f.Set(" mermaid "); err != nil || f.String() != "mermaid" {
		t.Errorf("Set(mermaid) = %v, value %q", err, f.String())
	}
}
