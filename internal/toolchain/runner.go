// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"strings"

	"github.com/cakedeps/cakedeps/pkg/types"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

type (
	// Runner executes stage templates with the embedded shell interpreter.
	Runner struct {
		dir    string
		env    map[string]string
		stdout io.Writer
		stderr io.Writer
		logger *log.Logger
	}

	// RunnerOption configures a Runner.
	RunnerOption func(*Runner)
)

// WithDir sets the working directory of every stage. Empty means the
// process's current directory.
func WithDir(dir string) RunnerOption {
	return func(r *Runner) { r.dir = dir }
}

// WithEnv adds variables to the environment of every stage, on top of the
// process environment.
func WithEnv(env map[string]string) RunnerOption {
	return func(r *Runner) { maps.Copy(r.env, env) }
}

// WithOutput sets where stage output goes.
func WithOutput(stdout, stderr io.Writer) RunnerOption {
	return func(r *Runner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a Runner. Stages inherit the process environment.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		env:    environMap(),
		stdout: io.Discard,
		stderr: io.Discard,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes script as stage with vars added to its environment. A
// non-zero exit status, a parse failure or a runner failure is returned as
// *ToolchainError.
func (r *Runner) Run(ctx context.Context, stage Stage, script string, vars map[string]string) error {
	if strings.TrimSpace(script) == "" {
		return &ToolchainError{Stage: stage, ExitCode: 1, Err: errors.New("no command configured")}
	}

	prog, err := syntax.NewParser().Parse(strings.NewReader(script), string(stage))
	if err != nil {
		return &ToolchainError{Stage: stage, ExitCode: 1, Err: fmt.Errorf("parse command: %w", err)}
	}

	env := maps.Clone(r.env)
	maps.Copy(env, vars)

	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(EnvToSlice(env)...)),
		interp.StdIO(nil, r.stdout, r.stderr),
	}
	if r.dir != "" {
		opts = append(opts, interp.Dir(r.dir))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return &ToolchainError{Stage: stage, ExitCode: 1, Err: fmt.Errorf("create interpreter: %w", err)}
	}

	r.logger.Debug("running toolchain stage", "stage", stage, "command", script)
	err = runner.Run(ctx, prog)
	if err == nil {
		return nil
	}

	var exitStatus interp.ExitStatus
	if errors.As(err, &exitStatus) {
		return &ToolchainError{Stage: stage, ExitCode: types.ExitCode(exitStatus)}
	}
	return &ToolchainError{Stage: stage, ExitCode: 1, Err: err}
}
