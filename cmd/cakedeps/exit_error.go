// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/cakedeps/cakedeps/internal/artifact"
	"github.com/cakedeps/cakedeps/internal/config"
	"github.com/cakedeps/cakedeps/internal/issue"
	"github.com/cakedeps/cakedeps/internal/toolchain"
	"github.com/cakedeps/cakedeps/internal/watch"
	"github.com/cakedeps/cakedeps/pkg/cakemod"
	"github.com/cakedeps/cakedeps/pkg/types"
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// usageError marks err as a command-line usage problem (exit status 2).
func usageError(err error) error {
	return &ExitError{Code: types.ExitUsage, Err: err}
}

// exitCodeFor maps an error returned by a command to the process exit status.
// An explicit ExitError wins over the error kind it wraps.
func exitCodeFor(err error) types.ExitCode {
	if err == nil {
		return types.ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	switch {
	case errors.Is(err, cakemod.ErrCyclicDependency):
		return types.ExitCycle
	case errors.Is(err, cakemod.ErrMalformedDeclaration):
		return types.ExitMalformed
	case errors.Is(err, cakemod.ErrNotFound):
		return types.ExitNotFound
	case errors.Is(err, toolchain.ErrToolchain):
		return types.ExitToolchain
	case isUsage(err):
		return types.ExitUsage
	default:
		return types.ExitFailure
	}
}

func isUsage(err error) bool {
	return errors.Is(err, config.ErrConfiguration) ||
		errors.Is(err, config.ErrInvalidLoadOptions) ||
		errors.Is(err, cakemod.ErrUnknownScheme) ||
		errors.Is(err, artifact.ErrUnknownFormat) ||
		errors.Is(err, watch.ErrInvalidWatchConfig)
}

// issueFor selects the catalog entry rendered as extended help in verbose mode.
func issueFor(err error) (issue.Id, bool) {
	var cfgErr *config.ConfigurationError
	switch {
	case errors.Is(err, cakemod.ErrCyclicDependency):
		return issue.DependencyCycleId, true
	case errors.Is(err, cakemod.ErrMalformedDeclaration):
		return issue.MalformedDeclarationId, true
	case errors.Is(err, fs.ErrPermission):
		return issue.PermissionDeniedId, true
	case errors.Is(err, cakemod.ErrNotFound):
		return issue.FileNotFoundId, true
	case errors.Is(err, toolchain.ErrToolchain):
		return issue.ToolchainFailedId, true
	case errors.Is(err, cakemod.ErrUnknownScheme):
		return issue.UnknownSchemeId, true
	case errors.Is(err, artifact.ErrUnknownFormat):
		return issue.UnknownFormatId, true
	case errors.As(err, &cfgErr) && cfgErr.Field == outputFlag:
		return issue.MissingOutputId, true
	case errors.Is(err, config.ErrConfiguration):
		return issue.ConfigLoadFailedId, true
	default:
		return 0, false
	}
}
