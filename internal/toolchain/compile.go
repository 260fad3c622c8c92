// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cakedeps/cakedeps/internal/artifact"
	"github.com/cakedeps/cakedeps/pkg/types"
)

const (
	// DefaultCompiler is the compiler stage template.
	DefaultCompiler = `cake < "$CAKE_INPUT" > "$CAKE_OUTPUT"`
	// DefaultLinker is the linker stage template.
	DefaultLinker = `cc -o "$CAKE_OUTPUT" "$CAKE_INPUT" "$CAKE_RUNTIME"`
	// DefaultRuntimeSupport is the runtime-support file linked into every binary.
	DefaultRuntimeSupport = "basis_ffi.c"
	// DefaultBuildDir holds intermediate artifacts.
	DefaultBuildDir = "build"

	// AssemblyExt is the extension of the compiler stage output.
	AssemblyExt = ".S"
)

type (
	// Pipeline describes the two stages of compilation mode.
	Pipeline struct {
		Compiler       string
		Linker         string
		RuntimeSupport types.FilesystemPath
		BuildDir       types.FilesystemPath
	}

	// Result lists the artifacts produced by Compile.
	Result struct {
		Source   types.FilesystemPath
		Assembly types.FilesystemPath
		Binary   types.FilesystemPath
	}
)

// DefaultPipeline returns the stock CakeML pipeline.
func DefaultPipeline() Pipeline {
	return Pipeline{
		Compiler:       DefaultCompiler,
		Linker:         DefaultLinker,
		RuntimeSupport: DefaultRuntimeSupport,
		BuildDir:       DefaultBuildDir,
	}
}

// Compile concatenates files into the build directory, runs the compiler
// stage on the merged source and links the resulting assembly into output.
// The binary is linked under a temporary name next to output and renamed
// into place, so a failed link leaves any previous binary intact.
func Compile(ctx context.Context, r *Runner, p Pipeline, files []types.FilesystemPath, output types.FilesystemPath) (*Result, error) {
	if err := output.Validate(); err != nil {
		return nil, fmt.Errorf("output binary: %w", err)
	}

	buildDir := p.BuildDir
	if buildDir == "" {
		buildDir = DefaultBuildDir
	}
	stem := strings.TrimSuffix(filepath.Base(string(output)), filepath.Ext(string(output)))
	res := &Result{
		Source:   buildDir.Join(stem + ".cml"),
		Assembly: buildDir.Join(stem + AssemblyExt),
		Binary:   output,
	}

	if err := artifact.WriteConcatenation(res.Source, files); err != nil {
		return nil, err
	}
	r.logger.Debug("wrote merged source", "file", res.Source, "modules", len(files))

	// A stale assembly from an earlier run must not satisfy the check below.
	if err := os.Remove(string(res.Assembly)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale %s: %w", res.Assembly, err)
	}

	err := r.Run(ctx, StageCompile, p.Compiler, map[string]string{
		"CAKE_INPUT":     stagePath(res.Source),
		"CAKE_OUTPUT":    stagePath(res.Assembly),
		"CAKE_BUILD_DIR": stagePath(buildDir),
	})
	if err != nil {
		return nil, err
	}
	if err := requireOutput(StageCompile, res.Assembly); err != nil {
		return nil, err
	}

	outDir := output.Dir()
	if err := os.MkdirAll(string(outDir), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", outDir, err)
	}
	tmp := outDir.Join(fmt.Sprintf(".%s.%d.tmp", filepath.Base(string(output)), os.Getpid()))
	defer func() { _ = os.Remove(string(tmp)) }()

	err = r.Run(ctx, StageLink, p.Linker, map[string]string{
		"CAKE_INPUT":     stagePath(res.Assembly),
		"CAKE_OUTPUT":    stagePath(tmp),
		"CAKE_RUNTIME":   string(p.RuntimeSupport),
		"CAKE_BUILD_DIR": stagePath(buildDir),
	})
	if err != nil {
		return nil, err
	}
	if err := requireOutput(StageLink, tmp); err != nil {
		return nil, err
	}
	if err := os.Rename(string(tmp), string(output)); err != nil {
		return nil, fmt.Errorf("replace %s: %w", output, err)
	}

	r.logger.Debug("linked binary", "file", output)
	return res, nil
}

// stagePath makes an artifact path absolute so that stages running in a
// different directory (WithDir) still find it.
func stagePath(path types.FilesystemPath) string {
	abs, err := path.Abs()
	if err != nil {
		return string(path)
	}
	return string(abs)
}

func requireOutput(stage Stage, path types.FilesystemPath) error {
	if _, err := os.Stat(string(path)); err != nil {
		return &ToolchainError{Stage: stage, ExitCode: types.ExitSuccess, Err: fmt.Errorf("%w: %s", ErrMissingArtifact, path)}
	}
	return nil
}
