// SPDX-License-Identifier: MPL-2.0

package artifact

import (
	"context"
	"os"
	"testing"

	"github.com/cakedeps/cakedeps/pkg/cakemod"
	"github.com/cakedeps/cakedeps/pkg/types"
)

// declMap serves declarations from memory.
type declMap map[types.FilesystemPath][]types.FilesystemPath

func (m declMap) ReadDeclarations(path types.FilesystemPath) ([]types.FilesystemPath, error) {
	deps, ok := m[path]
	if !ok {
		return nil, &cakemod.NotFoundError{Path: path, Err: os.ErrNotExist}
	}
	return deps, nil
}

// chainClosure resolves /p/A.cml -> /p/B.cml -> /p/C.cml, with A also
// depending on C directly.
func chainClosure(t *testing.T) *cakemod.Closure {
	t.Helper()
	reader := declMap{
		"/p/A.cml": {"/p/B.cml", "/p/C.cml"},
		"/p/B.cml": {"/p/C.cml"},
		"/p/C.cml": nil,
	}
	c, err := cakemod.NewBuilder(reader).Resolve(context.Background(), "/p/A.cml")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return c
}
