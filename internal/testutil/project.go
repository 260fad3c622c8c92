// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"path/filepath"
	"strings"
	"testing"
)

// WriteProject creates files under root. Keys are slash-separated paths
// relative to root; values are file contents.
func WriteProject(t testing.TB, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		MustWriteFile(t, filepath.Join(root, filepath.FromSlash(rel)), content)
	}
}

// Source returns a CakeML source body whose first line declares deps with the
// "(* deps: ... *)" markers, followed by body. With no deps the declaration
// line is omitted.
func Source(body string, deps ...string) string {
	if len(deps) == 0 {
		return body
	}
	return "(* deps: " + strings.Join(deps, " ") + " *)\n" + body
}
