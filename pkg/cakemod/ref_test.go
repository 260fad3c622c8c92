// SPDX-License-Identifier: MPL-2.0

package cakemod

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/cakedeps/cakedeps/pkg/types"
)

func TestModuleRef_Resolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ref  ModuleRef
		dir  types.FilesystemPath
		root types.FilesystemPath
		want string
	}{
		{name: "root qualified ignores declaring dir", ref: "@Root.Util", dir: "proj", root: ".", want: "Root/Util.cml"},
		{name: "relative uses declaring dir", ref: "Local.Helper", dir: "proj", root: ".", want: "proj/Local/Helper.cml"},
		{name: "single segment", ref: "B", dir: "src", root: "/work", want: "src/B.cml"},
		{name: "root qualified under absolute root", ref: "@Lib.Json", dir: "/work/app/deep", root: "/work", want: "/work/Lib/Json.cml"},
		{name: "relative from nested dir", ref: "Sibling", dir: "/work/app/deep", root: "/work", want: "/work/app/deep/Sibling.cml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.ref.Resolve(tt.dir, tt.root)
			if want := types.FilesystemPath(filepath.FromSlash(tt.want)); got != want {
				t.Errorf("ModuleRef(%q).Resolve(%q, %q) = %q, want %q", tt.ref, tt.dir, tt.root, got, want)
			}
		})
	}
}

func TestModuleRef_Validate(t *testing.T) {
	t.Parallel()

	valid := []ModuleRef{"A", "A.B", "@A", "@A.B.C", "Foo_bar.Baz'"}
	for _, r := range valid {
		if err := r.Validate(); err != nil {
			t.Errorf("ModuleRef(%q).Validate() = %v, want nil", r, err)
		}
	}

	invalid := []ModuleRef{"", "@", "A..B", ".A", "A.", "@.A", "a/b", `a\b`, "A B"}
	for _, r := range invalid {
		err := r.Validate()
		if err == nil {
			t.Errorf("ModuleRef(%q).Validate() = nil, want error", r)
			continue
		}
		if !errors.Is(err, ErrInvalidModuleRef) {
			t.Errorf("ModuleRef(%q).Validate() error should wrap ErrInvalidModuleRef: %v", r, err)
		}
	}
}

func TestModuleRef_Name(t *testing.T) {
	t.Parallel()

	if got := ModuleRef("@Root.Util").Name(); got != "Root.Util" {
		t.Errorf("Name() = %q", got)
	}
	if !ModuleRef("@Root.Util").IsRootQualified() || ModuleRef("Root.Util").IsRootQualified() {
		t.Error("IsRootQualified mismatch")
	}
	if got, want := ModuleRef("A.B.C").RelPath(), filepath.Join("A", "B", "C.cml"); got != want {
		t.Errorf("RelPath() = %q, want %q", got, want)
	}
}
