// SPDX-License-Identifier: MPL-2.0

package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cakedeps/cakedeps/pkg/cakemod"
	"github.com/cakedeps/cakedeps/pkg/types"

	"gopkg.in/yaml.v3"
)

const (
	// FormatLines prints one path per line.
	FormatLines ListFormat = "lines"
	// FormatJoined prints all paths on one space-separated line.
	FormatJoined ListFormat = "joined"
	// FormatJSON prints a JSON array of paths.
	FormatJSON ListFormat = "json"
	// FormatYAML prints a YAML sequence of paths.
	FormatYAML ListFormat = "yaml"
	// FormatDeps prints "file: dep1, dep2" for every file in resolution order.
	FormatDeps ListFormat = "deps"
)

// ErrUnknownFormat is returned when an output format name is not recognized.
var ErrUnknownFormat = errors.New("unknown output format")

// ListFormat selects how a resolution order is serialized.
type ListFormat string

var listFormats = []ListFormat{FormatLines, FormatJoined, FormatJSON, FormatYAML, FormatDeps}

// String returns the format name.
func (f ListFormat) String() string { return string(f) }

// Validate returns an error wrapping ErrUnknownFormat for unsupported names.
func (f ListFormat) Validate() error {
	for _, known := range listFormats {
		if f == known {
			return nil
		}
	}
	return fmt.Errorf("%w %q (known: %s)", ErrUnknownFormat, string(f), strings.Join(ListFormatNames(), ", "))
}

// ListFormatNames returns the supported listing format names.
func ListFormatNames() []string {
	names := make([]string, len(listFormats))
	for i, f := range listFormats {
		names[i] = string(f)
	}
	return names
}

// WriteListing serializes the resolution order of c to w.
func WriteListing(w io.Writer, c *cakemod.Closure, format ListFormat) error {
	if err := format.Validate(); err != nil {
		return err
	}

	paths := pathStrings(c.Files)
	switch format {
	case FormatJoined:
		_, err := fmt.Fprintln(w, strings.Join(paths, " "))
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(paths); err != nil {
			return fmt.Errorf("encode json listing: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(paths); err != nil {
			return fmt.Errorf("encode yaml listing: %w", err)
		}
		return enc.Close()
	case FormatDeps:
		for _, f := range c.Files {
			line := string(f) + ":"
			if deps := c.Deps(f); len(deps) > 0 {
				line += " " + strings.Join(pathStrings(deps), ", ")
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		return nil
	case FormatLines:
	}

	for _, p := range paths {
		if _, err := fmt.Fprintln(w, p); err != nil {
			return err
		}
	}
	return nil
}

func pathStrings(paths []types.FilesystemPath) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = string(p)
	}
	return out
}
