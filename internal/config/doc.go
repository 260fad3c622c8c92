// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from an explicit --config file, else from the
// platform config directory (cakedeps/config.cue under $XDG_CONFIG_HOME or
// ~/.config on Linux, ~/Library/Application Support on macOS, %APPDATA% on
// Windows), else from cakedeps.cue in the working directory. Missing files
// mean defaults. Every key can be overridden with a CAKEDEPS_ environment
// variable (resolver.root becomes CAKEDEPS_RESOLVER_ROOT).
//
// Files are validated against the embedded CUE schema (config_schema.cue)
// before they are merged into Viper.
package config
