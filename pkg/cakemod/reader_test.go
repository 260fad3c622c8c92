// SPDX-License-Identifier: MPL-2.0

package cakemod

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/cakedeps/cakedeps/internal/testutil"
	"github.com/cakedeps/cakedeps/pkg/types"
)

func TestReader_ReadDeclarations(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteProject(t, root, map[string]string{
		"proj/A.cml":            testutil.Source("val a = 1;\n", "@Root.Util", "Local.Helper"),
		"proj/Local/Helper.cml": "val h = 1;\n",
		"Root/Util.cml":         "val u = 1;\n",
	})

	r := NewReader(types.FilesystemPath(root))
	got, err := r.ReadDeclarations(types.FilesystemPath(filepath.Join(root, "proj", "A.cml")))
	if err != nil {
		t.Fatalf("ReadDeclarations: %v", err)
	}

	want := []types.FilesystemPath{
		types.FilesystemPath(filepath.Join(root, "Root", "Util.cml")),
		types.FilesystemPath(filepath.Join(root, "proj", "Local", "Helper.cml")),
	}
	if !slices.Equal(got, want) {
		t.Errorf("ReadDeclarations() = %v, want %v", got, want)
	}
}

func TestReader_OnlyFirstLineIsRead(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteProject(t, root, map[string]string{
		"A.cml": "val a = 1;\n(* deps: B *)\n",
		"B.cml": "(* deps: C *)",
	})

	r := NewReader(types.FilesystemPath(root))
	got, err := r.ReadDeclarations(types.FilesystemPath(filepath.Join(root, "A.cml")))
	if err != nil {
		t.Fatalf("ReadDeclarations(A): %v", err)
	}
	if len(got) != 0 {
		t.Errorf("declaration below the first line should be ignored, got %v", got)
	}

	// No trailing newline.
	got, err = r.ReadDeclarations(types.FilesystemPath(filepath.Join(root, "B.cml")))
	if err != nil {
		t.Fatalf("ReadDeclarations(B): %v", err)
	}
	if want := []types.FilesystemPath{types.FilesystemPath(filepath.Join(root, "C.cml"))}; !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestReader_EmptyFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteProject(t, root, map[string]string{"Empty.cml": ""})

	got, err := NewReader(types.FilesystemPath(root)).ReadDeclarations(types.FilesystemPath(filepath.Join(root, "Empty.cml")))
	if err != nil || len(got) != 0 {
		t.Errorf("ReadDeclarations(empty) = (%v, %v), want no dependencies", got, err)
	}
}

func TestReader_NotFound(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	missing := types.FilesystemPath(filepath.Join(root, "Missing.cml"))

	_, err := NewReader(types.FilesystemPath(root)).ReadDeclarations(missing)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected *NotFoundError, got %T: %v", err, err)
	}
	if nf.Path != missing {
		t.Errorf("Path = %q, want %q", nf.Path, missing)
	}
	if !errors.Is(err, ErrNotFound) || !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error should wrap ErrNotFound and fs.ErrNotExist: %v", err)
	}
}

func TestReader_DirectoryIsNotFound(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.MustMkdirAll(t, filepath.Join(root, "Dir.cml"), 0o755)

	_, err := NewReader(types.FilesystemPath(root)).ReadDeclarations(types.FilesystemPath(filepath.Join(root, "Dir.cml")))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("directory should be reported as not found, got %v", err)
	}
}

func TestReader_Malformed(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := filepath.Join(root, "A.cml")
	testutil.WriteProject(t, root, map[string]string{"A.cml": "(* deps: B..C *)\n"})

	_, err := NewReader(types.FilesystemPath(root)).ReadDeclarations(types.FilesystemPath(path))
	var malformed *MalformedDeclarationError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected *MalformedDeclarationError, got %T: %v", err, err)
	}
	if string(malformed.Path) != path {
		t.Errorf("Path = %q, want %q", malformed.Path, path)
	}
}

func TestReader_StrictAndScheme(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteProject(t, root, map[string]string{
		"Spaced.cml": "(* deps: A  B *)\n",
		"Open.cml":   "(* open A *)\n",
	})
	spaced := types.FilesystemPath(filepath.Join(root, "Spaced.cml"))
	open := types.FilesystemPath(filepath.Join(root, "Open.cml"))

	if deps, err := NewReader(types.FilesystemPath(root)).ReadDeclarations(spaced); err != nil || len(deps) != 2 {
		t.Errorf("lenient reader = (%v, %v), want two dependencies", deps, err)
	}
	if _, err := NewReader(types.FilesystemPath(root), WithStrict(true)).ReadDeclarations(spaced); !errors.Is(err, ErrMalformedDeclaration) {
		t.Errorf("strict reader error = %v, want ErrMalformedDeclaration", err)
	}

	openScheme, _ := LookupScheme(SchemeOpen)
	deps, err := NewReader(types.FilesystemPath(root), WithScheme(openScheme)).ReadDeclarations(open)
	if err != nil {
		t.Fatalf("open scheme: %v", err)
	}
	if want := []types.FilesystemPath{types.FilesystemPath(filepath.Join(root, "A.cml"))}; !slices.Equal(deps, want) {
		t.Errorf("open scheme deps = %v, want %v", deps, want)
	}
}

func TestNewReader_DefaultRoot(t *testing.T) {
	t.Parallel()

	r := NewReader("")
	if r.Root() != "." {
		t.Errorf("Root() = %q, want %q", r.Root(), ".")
	}
	if r.Scheme().Name != SchemeDeps {
		t.Errorf("Scheme() = %q, want %q", r.Scheme().Name, SchemeDeps)
	}
}

func TestReader_Cache(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := filepath.Join(root, "A.cml")
	testutil.WriteProject(t, root, map[string]string{"A.cml": "(* deps: B *)\n"})

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	modTime := info.ModTime()

	cache, err := NewDeclCache(8)
	if err != nil {
		t.Fatalf("NewDeclCache: %v", err)
	}
	r := NewReader(types.FilesystemPath(root), WithCache(cache))

	first, err := r.ReadDeclarations(types.FilesystemPath(path))
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	if cache.Len() != 1 {
		t.Fatalf("cache.Len() = %d, want 1", cache.Len())
	}

	// Same size and modification time: the cached declaration is reused.
	testutil.MustWriteFile(t, path, "(* deps: C *)\n")
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatal(err)
	}
	cached, err := r.ReadDeclarations(types.FilesystemPath(path))
	if err != nil {
		t.Fatalf("cached read: %v", err)
	}
	if !slices.Equal(cached, first) {
		t.Errorf("cached read = %v, want %v", cached, first)
	}

	// A changed file is parsed again.
	testutil.MustWriteFile(t, path, "(* deps: C D *)\n")
	if err := os.Chtimes(path, modTime.Add(time.Second), modTime.Add(time.Second)); err != nil {
		t.Fatal(err)
	}
	fresh, err := r.ReadDeclarations(types.FilesystemPath(path))
	if err != nil {
		t.Fatalf("fresh read: %v", err)
	}
	if len(fresh) != 2 {
		t.Errorf("changed file should be re-read, got %v", fresh)
	}

}

func TestDeclCache_Forget(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := filepath.Join(root, "A.cml")
	testutil.WriteProject(t, root, map[string]string{"A.cml": "(* deps: B *)\n"})

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	modTime := info.ModTime()

	cache, err := NewDeclCache(8)
	if err != nil {
		t.Fatalf("NewDeclCache: %v", err)
	}
	r := NewReader(types.FilesystemPath(root), WithCache(cache))
	if _, err := r.ReadDeclarations(types.FilesystemPath(path)); err != nil {
		t.Fatalf("first read: %v", err)
	}

	// A same-length edit that keeps the modification time is invisible to
	// the size and mtime check; Forget makes the next read see it.
	testutil.MustWriteFile(t, path, "(* deps: C *)\n")
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatal(err)
	}
	cache.Forget(types.FilesystemPath(filepath.Join(root, ".", "A.cml")))
	if cache.Len() != 0 {
		t.Fatalf("cache.Len() after Forget = %d, want 0", cache.Len())
	}

	got, err := r.ReadDeclarations(types.FilesystemPath(path))
	if err != nil {
		t.Fatalf("read after Forget: %v", err)
	}
	want := []types.FilesystemPath{types.FilesystemPath(filepath.Join(root, "C.cml"))}
	if !slices.Equal(got, want) {
		t.Errorf("read after Forget = %v, want %v", got, want)
	}
}

func TestDeclCache_SchemeIsPartOfKey(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := types.FilesystemPath(filepath.Join(root, "A.cml"))
	testutil.WriteProject(t, root, map[string]string{"A.cml": "(* deps: B *)\n"})

	cache, err := NewDeclCache(0)
	if err != nil {
		t.Fatal(err)
	}
	openScheme, _ := LookupScheme(SchemeOpen)

	if deps, _ := NewReader(types.FilesystemPath(root), WithCache(cache)).ReadDeclarations(path); len(deps) != 1 {
		t.Fatalf("deps scheme = %v, want one dependency", deps)
	}
	if deps, _ := NewReader(types.FilesystemPath(root), WithCache(cache), WithScheme(openScheme)).ReadDeclarations(path); len(deps) != 0 {
		t.Errorf("open scheme should not reuse deps-scheme entry, got %v", deps)
	}
}
