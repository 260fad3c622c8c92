// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cakedeps/cakedeps/internal/config"
	"github.com/cakedeps/cakedeps/internal/issue"
)

// newConfigCommand creates the `cakedeps config` command tree.
func newConfigCommand(app *App, flags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage cakedeps configuration",
		Long: `Manage cakedeps configuration.

Configuration is read from the first file found of:
  - the file given with --config
  - Linux: ~/.config/cakedeps/config.cue
    macOS: ~/Library/Application Support/cakedeps/config.cue
    Windows: %APPDATA%\cakedeps\config.cue
  - ./cakedeps.cue

Any setting can be overridden with a CAKEDEPS_ environment variable, for
example CAKEDEPS_RESOLVER_ROOT=src.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession(cmd, flags)
			if err != nil {
				return err
			}
			fmt.Fprintf(app.stdout, "// source: %s\n", sourceLabel(s.cfg))
			fmt.Fprint(app.stdout, config.GenerateCUE(s.cfg))
			return nil
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		Long: `Write the default configuration to the platform config directory, or to
the path given with --config.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := flags.configPath
			if path == "" {
				p, err := config.DefaultConfigPath(config.LoadOptions{})
				if err != nil {
					return err
				}
				path = p
			}
			if err := config.WriteDefault(path, force); err != nil {
				return issue.NewErrorContext().
					WithOperation("write configuration").
					WithResource(path).
					WithSuggestion("Use --force to replace an existing file").
					Wrap(err).
					BuildError()
			}
			fmt.Fprintf(app.stdout, "%s created %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(path))
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.configPath != "" {
				fmt.Fprintln(app.stdout, flags.configPath)
				return nil
			}
			p, err := config.DefaultConfigPath(config.LoadOptions{})
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, p)
			return nil
		},
	})

	return cfgCmd
}
