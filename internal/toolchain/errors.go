// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"errors"
	"fmt"

	"github.com/cakedeps/cakedeps/pkg/types"
)

const (
	// StageCompile turns the merged source into assembly.
	StageCompile Stage = "compile"
	// StageLink turns assembly plus the runtime-support file into a binary.
	StageLink Stage = "link"
)

var (
	// ErrToolchain is the sentinel error wrapped by ToolchainError.
	ErrToolchain = errors.New("toolchain failure")

	// ErrMissingArtifact marks a stage that exited successfully without
	// creating its output file.
	ErrMissingArtifact = errors.New("stage produced no output")
)

type (
	// Stage names one external tool invocation of the compilation pipeline.
	Stage string

	// ToolchainError reports a stage that exited non-zero, could not run, or
	// left no output behind. ExitCode is the stage's exit status. It is 1 when
	// the stage failed before producing one (for example a syntax error in its
	// template) and ExitSuccess when the stage exited cleanly but its output
	// is missing.
	ToolchainError struct {
		Stage    Stage
		ExitCode types.ExitCode
		Err      error
	}
)

// String returns the stage name.
func (s Stage) String() string { return string(s) }

// Error implements the error interface.
func (e *ToolchainError) Error() string {
	if e.ExitCode.IsSuccess() && e.Err != nil {
		return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s stage failed (exit status %d): %v", e.Stage, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("%s stage failed with exit status %d", e.Stage, e.ExitCode)
}

// Unwrap exposes ErrToolchain and the underlying cause, if any.
func (e *ToolchainError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrToolchain}
	}
	return []error{ErrToolchain, e.Err}
}
