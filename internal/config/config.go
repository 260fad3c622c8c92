// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cakedeps/cakedeps/internal/issue"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "cakedeps"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// LocalConfigFileName is the project-local config file looked up in the
	// working directory.
	LocalConfigFileName = AppName + "." + ConfigFileExt
	// EnvPrefix prefixes environment overrides (CAKEDEPS_RESOLVER_ROOT).
	EnvPrefix = "CAKEDEPS"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the cakedeps directory inside the user configuration
// directory: $XDG_CONFIG_HOME or ~/.config on Linux, ~/Library/Application
// Support on macOS and %AppData% on Windows.
//
//nolint:revive // config.ConfigDir reads better than config.Dir at call sites
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate user config directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// DefaultConfigPath returns the config file inside the config directory,
// honoring opts.ConfigDirPath.
func DefaultConfigPath(opts LoadOptions) (string, error) {
	cfgDir, err := configDirWithOverride(string(opts.ConfigDirPath))
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt), nil
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath := ""

	// A config file given with --config is used exclusively and must exist.
	if opts.ConfigFilePath != "" {
		path := string(opts.ConfigFilePath)
		if !fileExists(path) {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'cakedeps config init' to create a default configuration").
				Wrap(&ConfigurationError{Field: "--config", Reason: "file not found: " + path}).
				BuildError()
		}
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, loadError(path, err)
		}
		resolvedPath = path
	} else {
		candidates := make([]string, 0, 2)
		cfgPath, err := DefaultConfigPath(opts)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, cfgPath)
		candidates = append(candidates, filepath.Join(string(opts.BaseDir), LocalConfigFileName))

		for _, path := range candidates {
			if !fileExists(path) {
				continue
			}
			if err := loadCUEIntoViper(v, path); err != nil {
				return nil, loadError(path, err)
			}
			resolvedPath = path
			break
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Source = resolvedPath

	if err := cfg.Validate(); err != nil {
		resource := resolvedPath
		if resource == "" {
			resource = "environment"
		}
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resource).
			WithSuggestion("Check " + EnvPrefix + "_* environment variables").
			WithSuggestion("Run 'cakedeps config show' to inspect the effective configuration").
			Wrap(err).
			BuildError()
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()
	v.SetDefault("resolver.root", defaults.Resolver.Root)
	v.SetDefault("resolver.scheme", defaults.Resolver.Scheme)
	v.SetDefault("resolver.strict", defaults.Resolver.Strict)
	v.SetDefault("toolchain.compiler", defaults.Toolchain.Compiler)
	v.SetDefault("toolchain.linker", defaults.Toolchain.Linker)
	v.SetDefault("toolchain.runtime_support", defaults.Toolchain.RuntimeSupport)
	v.SetDefault("toolchain.build_dir", defaults.Toolchain.BuildDir)
	v.SetDefault("toolchain.env_files", defaults.Toolchain.EnvFiles)
	v.SetDefault("watch.debounce", defaults.Watch.Debounce)
	v.SetDefault("watch.clear_screen", defaults.Watch.ClearScreen)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
	v.SetDefault("ui.color_scheme", string(defaults.UI.ColorScheme))
}

func loadError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(path).
		WithSuggestion("Check that the file contains valid CUE syntax").
		WithSuggestion("Verify the configuration values match the expected schema").
		WithSuggestion("See 'cakedeps config --help' for configuration options").
		Wrap(&ConfigurationError{Reason: err.Error(), Err: err}).
		BuildError()
}

func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}
	return ConfigDir()
}

// loadCUEIntoViper merges the settings of a CUE file into v. Settings not in
// the file keep their defaults and stay overridable from the environment.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	settings, err := decodeCUEFile(path)
	if err != nil {
		return err
	}
	if err := v.MergeConfigMap(settings); err != nil {
		return fmt.Errorf("merge %s: %w", path, err)
	}
	return nil
}

// decodeCUEFile reads path, checks it against #Config and returns its
// fields as a nested map.
func decodeCUEFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if len(data) > maxConfigFileSize {
		return nil, fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", path, len(data), maxConfigFileSize)
	}

	ctx := cuecontext.New()
	def := ctx.CompileString(configSchema).LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("compile embedded config schema: %w", err)
	}

	file := ctx.CompileBytes(data, cue.Filename(path))
	if err := file.Err(); err != nil {
		return nil, formatCUEError(err, path)
	}
	checked := def.Unify(file)
	if err := checked.Validate(cue.Concrete(false)); err != nil {
		return nil, formatCUEError(err, path)
	}

	var settings map[string]any
	if err := checked.Decode(&settings); err != nil {
		return nil, formatCUEError(err, path)
	}
	return settings, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// WriteDefault writes the default configuration to path. An existing file is
// only replaced when force is set.
func WriteDefault(path string, force bool) error {
	if !force && fileExists(path) {
		return &ConfigurationError{Field: path, Reason: "file already exists (use --force to overwrite)"}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// GenerateCUE renders cfg in the config file syntax. The output of
// GenerateCUE(DefaultConfig()) is what `config init` writes.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// cakedeps configuration file\n\n")

	sb.WriteString("resolver: {\n")
	fmt.Fprintf(&sb, "\troot:   %q\n", cfg.Resolver.Root)
	fmt.Fprintf(&sb, "\tscheme: %q\n", cfg.Resolver.Scheme)
	fmt.Fprintf(&sb, "\tstrict: %v\n", cfg.Resolver.Strict)
	sb.WriteString("}\n")

	sb.WriteString("\ntoolchain: {\n")
	fmt.Fprintf(&sb, "\tcompiler:        %q\n", cfg.Toolchain.Compiler)
	fmt.Fprintf(&sb, "\tlinker:          %q\n", cfg.Toolchain.Linker)
	fmt.Fprintf(&sb, "\truntime_support: %q\n", cfg.Toolchain.RuntimeSupport)
	fmt.Fprintf(&sb, "\tbuild_dir:       %q\n", cfg.Toolchain.BuildDir)
	if len(cfg.Toolchain.EnvFiles) > 0 {
		sb.WriteString("\tenv_files: [\n")
		for _, f := range cfg.Toolchain.EnvFiles {
			fmt.Fprintf(&sb, "\t\t%q,\n", f)
		}
		sb.WriteString("\t]\n")
	}
	sb.WriteString("}\n")

	sb.WriteString("\nwatch: {\n")
	fmt.Fprintf(&sb, "\tdebounce:     %q\n", cfg.Watch.Debounce)
	fmt.Fprintf(&sb, "\tclear_screen: %v\n", cfg.Watch.ClearScreen)
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose:      %v\n", cfg.UI.Verbose)
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	sb.WriteString("}\n")

	return sb.String()
}
