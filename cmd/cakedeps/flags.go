// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"strings"

	"github.com/spf13/pflag"
)

// choiceFlag is a string flag restricted to a set of names. Invalid values
// are rejected while the command line is parsed, so they surface as usage
// errors before any file is read.
type choiceFlag[T ~string] struct {
	value    *T
	validate func(T) error
	names    []string
}

var _ pflag.Value = (*choiceFlag[string])(nil)

func newChoiceFlag[T ~string](value *T, def T, names []string, validate func(T) error) *choiceFlag[T] {
	*value = def
	return &choiceFlag[T]{value: value, validate: validate, names: names}
}

func (f *choiceFlag[T]) String() string {
	if f.value == nil {
		return ""
	}
	return string(*f.value)
}

func (f *choiceFlag[T]) Set(s string) error {
	v := T(strings.TrimSpace(s))
	if err := f.validate(v); err != nil {
		return err
	}
	*f.value = v
	return nil
}

// Type names the accepted values in help output.
func (f *choiceFlag[T]) Type() string {
	return strings.Join(f.names, "|")
}
