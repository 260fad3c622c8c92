// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/cakedeps/cakedeps/internal/toolchain"
	"github.com/cakedeps/cakedeps/pkg/cakemod"
	"github.com/cakedeps/cakedeps/pkg/types"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// DefaultDebounce is the default watch-mode debounce.
	DefaultDebounce = 300 * time.Millisecond
)

var (
	// ErrConfiguration is the sentinel error wrapped by ConfigurationError.
	ErrConfiguration = errors.New("configuration error")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
)

type (
	// ConfigurationError reports a missing or invalid setting. Field names the
	// setting the way a user spells it (a config key or a flag).
	ConfigurationError struct {
		Field  string
		Reason string
		Err    error
	}

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// Config holds the application configuration.
	Config struct {
		// Resolver configures dependency resolution
		Resolver ResolverConfig `json:"resolver" mapstructure:"resolver"`
		// Toolchain configures compilation mode
		Toolchain ToolchainConfig `json:"toolchain" mapstructure:"toolchain"`
		// Watch configures --watch rebuilds
		Watch WatchConfig `json:"watch" mapstructure:"watch"`
		// UI configures the user interface
		UI UIConfig `json:"ui" mapstructure:"ui"`

		// Source is the file the configuration was read from, empty for defaults.
		Source string `json:"-" mapstructure:"-"`
	}

	// ResolverConfig configures the declaration reader.
	ResolverConfig struct {
		Root   string `json:"root" mapstructure:"root"`
		Scheme string `json:"scheme" mapstructure:"scheme"`
		Strict bool   `json:"strict" mapstructure:"strict"`
	}

	// ToolchainConfig configures the compiler and linker stages.
	ToolchainConfig struct {
		Compiler       string   `json:"compiler" mapstructure:"compiler"`
		Linker         string   `json:"linker" mapstructure:"linker"`
		RuntimeSupport string   `json:"runtime_support" mapstructure:"runtime_support"`
		BuildDir       string   `json:"build_dir" mapstructure:"build_dir"`
		EnvFiles       []string `json:"env_files" mapstructure:"env_files"`
	}

	// WatchConfig configures watch mode.
	WatchConfig struct {
		Debounce    string `json:"debounce" mapstructure:"debounce"`
		ClearScreen bool   `json:"clear_screen" mapstructure:"clear_screen"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// Verbose enables debug logging and detailed error help
		Verbose bool `json:"verbose" mapstructure:"verbose"`
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
	}
)

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// Unwrap exposes ErrConfiguration and the underlying cause, if any.
func (e *ConfigurationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConfiguration}
	}
	return []error{ErrConfiguration, e.Err}
}

// NewMissingError reports a required setting that was not given.
func NewMissingError(field string) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: "required but not set"}
}

// String returns the string representation of the ColorScheme.
func (c ColorScheme) String() string { return string(c) }

// Validate returns an error if the ColorScheme is not one of the defined schemes.
func (c ColorScheme) Validate() error {
	switch c {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return nil
	default:
		return &InvalidColorSchemeError{Value: c}
	}
}

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// Validate checks the values CUE cannot fully check on its own, including
// values that arrived through environment overrides. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []error
	if _, err := cakemod.LookupScheme(c.Resolver.Scheme); err != nil {
		errs = append(errs, &ConfigurationError{Field: "resolver.scheme", Reason: err.Error(), Err: err})
	}
	if _, err := c.Watch.DebounceDuration(); err != nil {
		errs = append(errs, &ConfigurationError{Field: "watch.debounce", Reason: err.Error(), Err: err})
	}
	if err := c.UI.ColorScheme.Validate(); err != nil {
		errs = append(errs, &ConfigurationError{Field: "ui.color_scheme", Reason: err.Error(), Err: err})
	}
	return errors.Join(errs...)
}

// DebounceDuration parses Debounce. Empty means DefaultDebounce.
func (w WatchConfig) DebounceDuration() (time.Duration, error) {
	if w.Debounce == "" {
		return DefaultDebounce, nil
	}
	d, err := time.ParseDuration(w.Debounce)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", w.Debounce)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", w.Debounce)
	}
	return d, nil
}

// Pipeline returns the compilation pipeline described by the configuration.
func (t ToolchainConfig) Pipeline() toolchain.Pipeline {
	p := toolchain.DefaultPipeline()
	if t.Compiler != "" {
		p.Compiler = t.Compiler
	}
	if t.Linker != "" {
		p.Linker = t.Linker
	}
	if t.RuntimeSupport != "" {
		p.RuntimeSupport = types.FilesystemPath(t.RuntimeSupport)
	}
	if t.BuildDir != "" {
		p.BuildDir = types.FilesystemPath(t.BuildDir)
	}
	return p
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Resolver: ResolverConfig{
			Root:   ".",
			Scheme: cakemod.SchemeDeps,
			Strict: false,
		},
		Toolchain: ToolchainConfig{
			Compiler:       toolchain.DefaultCompiler,
			Linker:         toolchain.DefaultLinker,
			RuntimeSupport: toolchain.DefaultRuntimeSupport,
			BuildDir:       toolchain.DefaultBuildDir,
			EnvFiles:       []string{},
		},
		Watch: WatchConfig{
			Debounce:    DefaultDebounce.String(),
			ClearScreen: true,
		},
		UI: UIConfig{
			Verbose:     false,
			ColorScheme: ColorSchemeAuto,
		},
	}
}
