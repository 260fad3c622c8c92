// SPDX-License-Identifier: MPL-2.0

package types

import "testing"

func TestExitCodes(t *testing.T) {
	t.Parallel()

	codes := []ExitCode{ExitSuccess, ExitFailure, ExitUsage, ExitNotFound, ExitMalformed, ExitCycle, ExitToolchain}
	names := make(map[string]bool)
	for i, c := range codes {
		if int(c) != i {
			t.Errorf("%s = %d, want %d", c.Name(), c, i)
		}
		if c.Name() == "" || names[c.Name()] {
			t.Errorf("ExitCode(%d) has a missing or duplicate name %q", c, c.Name())
		}
		names[c.Name()] = true
	}

	if !ExitSuccess.IsSuccess() || ExitCycle.IsSuccess() {
		t.Error("IsSuccess must only hold for ExitSuccess")
	}
	if got := ExitCode(42).String(); got != "42" {
		t.Errorf("ExitCode(42).String() = %q, want %q", got, "42")
	}
	if got := ExitCode(42).Name(); got != "" {
		t.Errorf("ExitCode(42).Name() = %q, want empty", got)
	}
}
