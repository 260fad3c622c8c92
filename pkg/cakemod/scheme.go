// SPDX-License-Identifier: MPL-2.0

package cakemod

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	// SchemeDeps is the name of the default "(* deps: ... *)" marker scheme.
	SchemeDeps = "deps"
	// SchemeOpen is the name of the "(* open ... *)" marker scheme.
	SchemeOpen = "open"
)

// ErrUnknownScheme is returned by LookupScheme for names that are not registered.
var ErrUnknownScheme = errors.New("unknown marker scheme")

// MarkerScheme describes the fixed opening and closing markers that frame a
// dependency declaration on the first line of a file. The markers must match
// exactly, including their surrounding spaces.
type MarkerScheme struct {
	Name   string
	Prefix string
	Suffix string
}

var schemes = []MarkerScheme{
	{Name: SchemeDeps, Prefix: "(* deps: ", Suffix: " *)"},
	{Name: SchemeOpen, Prefix: "(* open ", Suffix: " *)"},
}

// DefaultScheme returns the "deps" marker scheme.
func DefaultScheme() MarkerScheme {
	return schemes[0]
}

// LookupScheme returns the registered scheme with the given name.
// The empty name selects the default scheme.
func LookupScheme(name string) (MarkerScheme, error) {
	if strings.TrimSpace(name) == "" {
		return DefaultScheme(), nil
	}
	for _, s := range schemes {
		if s.Name == name {
			return s, nil
		}
	}
	return MarkerScheme{}, fmt.Errorf("%w %q (known: %s)", ErrUnknownScheme, name, strings.Join(SchemeNames(), ", "))
}

// SchemeNames lists the registered scheme names in sorted order.
func SchemeNames() []string {
	names := make([]string, 0, len(schemes))
	for _, s := range schemes {
		names = append(names, s.Name)
	}
	slices.Sort(names)
	return names
}

// Format renders refs as a declaration line in this scheme.
func (s MarkerScheme) Format(refs ...ModuleRef) string {
	parts := make([]string, len(refs))
	for i, r := range refs {
		parts[i] = string(r)
	}
	return s.Prefix + strings.Join(parts, " ") + s.Suffix
}
