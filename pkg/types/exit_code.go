// SPDX-License-Identifier: MPL-2.0

package types

import "strconv"

// Process exit codes reported by the cakedeps CLI. Each failure class gets its
// own code so scripts can tell a missing module from a broken toolchain.
const (
	ExitSuccess   ExitCode = 0
	ExitFailure   ExitCode = 1
	ExitUsage     ExitCode = 2
	ExitNotFound  ExitCode = 3
	ExitMalformed ExitCode = 4
	ExitCycle     ExitCode = 5
	ExitToolchain ExitCode = 6
)

var exitCodeNames = map[ExitCode]string{
	ExitSuccess:   "success",
	ExitFailure:   "failure",
	ExitUsage:     "usage",
	ExitNotFound:  "not found",
	ExitMalformed: "malformed declaration",
	ExitCycle:     "dependency cycle",
	ExitToolchain: "toolchain failure",
}

// ExitCode is a process exit status. The zero value means success.
type ExitCode int

// IsSuccess reports whether c is ExitSuccess.
func (c ExitCode) IsSuccess() bool { return c == ExitSuccess }

// String returns the decimal code.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }

// Name returns the failure class of a cakedeps exit code, or "" for codes
// cakedeps does not assign (such as a stage's own exit status).
func (c ExitCode) Name() string { return exitCodeNames[c] }
