// SPDX-License-Identifier: MPL-2.0

//go:build windows

package watch

import (
	"errors"
	"slices"
	"syscall"
)

// fatalErrnos are the Win32 codes after which ReadDirectoryChangesW cannot
// continue: too many open files, an invalid handle (the watched directory
// was removed) and out of memory.
var fatalErrnos = []syscall.Errno{4, 6, 8}

func isFatalFsnotifyError(err error) bool {
	return slices.ContainsFunc(fatalErrnos, func(errno syscall.Errno) bool {
		return errors.Is(err, errno)
	})
}
