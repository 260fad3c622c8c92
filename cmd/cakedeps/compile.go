// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cakedeps/cakedeps/internal/issue"
	"github.com/cakedeps/cakedeps/internal/toolchain"
	"github.com/cakedeps/cakedeps/pkg/types"
)

func newCompileCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var (
		ef        entryFlags
		buildDir  string
		envFiles  []string
		watchMode bool
	)

	cmd := &cobra.Command{
		Use:   "compile [entry.cml]",
		Short: "Compile the entry file and its dependencies into a binary",
		Long: `Concatenate the closure of the entry file into the build directory, run
the compiler stage to produce assembly, then link it with the runtime-support
file into the output binary.

Stage commands are shell templates run by an embedded POSIX shell from the
project root, with these variables set:

  CAKE_INPUT      file the stage reads
  CAKE_OUTPUT     file the stage must create
  CAKE_RUNTIME    runtime-support file (link stage, relative to the root)
  CAKE_BUILD_DIR  directory for intermediate artifacts

Configure them under 'toolchain' in the config file. Variables from
toolchain.env_files and --env-file are added to the stage environment.`,
		Example: `  cakedeps compile -o bin/main Main.cml
  cakedeps compile --env-file .env.local -o bin/main Main.cml`,
		Args: maxEntries(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := ef.entries(args, false)
			if err != nil {
				return err
			}
			output, err := ef.requireOutput()
			if err != nil {
				return err
			}
			s, err := app.newSession(cmd, flags)
			if err != nil {
				return err
			}

			pipeline := s.cfg.Toolchain.Pipeline()
			if cmd.Flags().Changed("build-dir") {
				pipeline.BuildDir = types.FilesystemPath(buildDir)
			}

			env := make(map[string]string)
			if err := toolchain.LoadEnvFiles(env, s.cfg.Toolchain.EnvFiles, configBaseDir(s)); err != nil {
				return usageError(err)
			}
			if err := toolchain.LoadEnvFiles(env, envFiles, ""); err != nil {
				return usageError(err)
			}
			runner := toolchain.NewRunner(
				toolchain.WithDir(string(s.root)),
				toolchain.WithEnv(env),
				toolchain.WithOutput(app.stdout, app.stderr),
				toolchain.WithLogger(s.logger),
			)

			build := func(ctx context.Context) error {
				return runCompile(ctx, s, runner, pipeline, entries[0], output)
			}
			if watchMode {
				return runWatchMode(cmd, app, s, []types.FilesystemPath{output, pipeline.BuildDir}, build)
			}
			return build(cmd.Context())
		},
	}

	ef.bind(cmd, "path of the linked binary (required)")
	cmd.Flags().StringVar(&buildDir, "build-dir", "", "directory for intermediate artifacts (default toolchain.build_dir)")
	cmd.Flags().StringSliceVar(&envFiles, "env-file", nil, "dotenv file added to the stage environment (repeatable, suffix '?' for optional)")
	cmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "re-run when a source file changes")

	return cmd
}

func runCompile(ctx context.Context, s *session, runner *toolchain.Runner, pipeline toolchain.Pipeline, entry, output types.FilesystemPath) error {
	closure, err := s.resolve(ctx, entry)
	if err != nil {
		return err
	}
	res, err := toolchain.Compile(ctx, runner, pipeline, closure.Files, output)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("compile program").
			WithResource(string(entry)).
			WithSuggestions(
				"Check the stage output above",
				"Run 'cakedeps config show' to see the configured stage commands",
			).
			Wrap(err).
			BuildError()
	}
	s.logger.Info("compiled", "binary", res.Binary, "source", res.Source, "assembly", res.Assembly)
	return nil
}

// configBaseDir is the directory relative env files in the config file are
// resolved against.
func configBaseDir(s *session) string {
	if s.cfg.Source == "" {
		return ""
	}
	return filepath.Dir(s.cfg.Source)
}
