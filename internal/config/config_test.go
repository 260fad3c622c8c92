// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/cakedeps/cakedeps/internal/issue"
	"github.com/cakedeps/cakedeps/internal/testutil"
	"github.com/cakedeps/cakedeps/pkg/types"
)

// isolated returns LoadOptions that never see the user's real config files.
func isolated(t *testing.T) LoadOptions {
	t.Helper()
	return LoadOptions{
		ConfigDirPath: types.FilesystemPath(t.TempDir()),
		BaseDir:       types.FilesystemPath(t.TempDir()),
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()

	if cfg.Resolver.Root != "." {
		t.Errorf("expected default root to be '.', got %q", cfg.Resolver.Root)
	}
	if cfg.Resolver.Scheme != "deps" {
		t.Errorf("expected default scheme to be deps, got %q", cfg.Resolver.Scheme)
	}
	if cfg.Resolver.Strict {
		t.Error("expected strict to be false by default")
	}
	if cfg.Toolchain.RuntimeSupport != "basis_ffi.c" {
		t.Errorf("expected default runtime support basis_ffi.c, got %q", cfg.Toolchain.RuntimeSupport)
	}
	if d, err := cfg.Watch.DebounceDuration(); err != nil || d != 300*time.Millisecond {
		t.Errorf("expected default debounce 300ms, got %v (%v)", d, err)
	}
	if cfg.UI.ColorScheme != ColorSchemeAuto {
		t.Errorf("expected default color scheme to be auto, got %s", cfg.UI.ColorScheme)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux")
	}

	testXDGPath := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", testXDGPath)

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() returned error: %v", err)
	}
	if expected := filepath.Join(testXDGPath, AppName); dir != expected {
		t.Errorf("ConfigDir() = %s, want %s", dir, expected)
	}
}

func TestLoad_ReturnsDefaultsWhenNoConfigFile(t *testing.T) {
	t.Parallel()

	cfg, err := NewProvider().Load(context.Background(), isolated(t))
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Source != "" {
		t.Errorf("Source = %q, want empty", cfg.Source)
	}
	if cfg.Resolver.Scheme != DefaultConfig().Resolver.Scheme {
		t.Errorf("expected default scheme, got %q", cfg.Resolver.Scheme)
	}
	if cfg.Toolchain.Compiler != DefaultConfig().Toolchain.Compiler {
		t.Errorf("expected default compiler, got %q", cfg.Toolchain.Compiler)
	}
}

func TestLoad_ConfigDirFile(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	path := filepath.Join(string(opts.ConfigDirPath), "config.cue")
	testutil.MustWriteFile(t, path, `
resolver: {
	scheme: "open"
	strict: true
}
toolchain: env_files: ["build.env"]
watch: debounce: "1s"
`)

	cfg, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Source != path {
		t.Errorf("Source = %q, want %q", cfg.Source, path)
	}
	if cfg.Resolver.Scheme != "open" || !cfg.Resolver.Strict {
		t.Errorf("resolver = %+v", cfg.Resolver)
	}
	if cfg.Resolver.Root != "." {
		t.Errorf("unset root should keep its default, got %q", cfg.Resolver.Root)
	}
	if len(cfg.Toolchain.EnvFiles) != 1 || cfg.Toolchain.EnvFiles[0] != "build.env" {
		t.Errorf("env_files = %v", cfg.Toolchain.EnvFiles)
	}
	if d, _ := cfg.Watch.DebounceDuration(); d != time.Second {
		t.Errorf("debounce = %v, want 1s", d)
	}
}

func TestLoad_LocalFile(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	path := filepath.Join(string(opts.BaseDir), LocalConfigFileName)
	testutil.MustWriteFile(t, path, `resolver: root: "src"`)

	cfg, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Resolver.Root != "src" {
		t.Errorf("root = %q, want src", cfg.Resolver.Root)
	}
	if cfg.Source != path {
		t.Errorf("Source = %q, want %q", cfg.Source, path)
	}
}

func TestLoad_ConfigDirTakesPrecedenceOverLocal(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	testutil.MustWriteFile(t, filepath.Join(string(opts.ConfigDirPath), "config.cue"), `resolver: root: "global"`)
	testutil.MustWriteFile(t, filepath.Join(string(opts.BaseDir), LocalConfigFileName), `resolver: root: "local"`)

	cfg, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Resolver.Root != "global" {
		t.Errorf("root = %q, want global", cfg.Resolver.Root)
	}
}

func TestLoad_CustomPath_Valid(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	custom := filepath.Join(t.TempDir(), "custom.cue")
	testutil.MustWriteFile(t, custom, `ui: verbose: true`)
	// The config directory is ignored when a custom path is given.
	testutil.MustWriteFile(t, filepath.Join(string(opts.ConfigDirPath), "config.cue"), `ui: color_scheme: "dark"`)
	opts.ConfigFilePath = types.FilesystemPath(custom)

	cfg, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if !cfg.UI.Verbose {
		t.Error("expected verbose from custom file")
	}
	if cfg.UI.ColorScheme != ColorSchemeAuto {
		t.Errorf("config dir file should be ignored, got color scheme %q", cfg.UI.ColorScheme)
	}
}

func TestLoad_CustomPath_NotFound_ReturnsError(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	opts.ConfigFilePath = types.FilesystemPath(filepath.Join(t.TempDir(), "missing.cue"))

	_, err := NewProvider().Load(context.Background(), opts)
	if err == nil {
		t.Fatal("expected error for missing custom config file")
	}

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *issue.ActionableError, got %T", err)
	}
	if len(ae.Suggestions) == 0 {
		t.Error("expected suggestions on config load failure")
	}
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("error should wrap ErrConfiguration: %v", err)
	}
}

func TestLoad_InvalidCUE_ReturnsError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{name: "syntax error", content: "resolver: {", wantMsg: "config.cue"},
		{name: "schema violation", content: `resolver: scheme: "import"`, wantMsg: "resolver.scheme"},
		{name: "unknown field", content: `bogus: 1`, wantMsg: "bogus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := isolated(t)
			testutil.MustWriteFile(t, filepath.Join(string(opts.ConfigDirPath), "config.cue"), tt.content)

			_, err := NewProvider().Load(context.Background(), opts)
			if !errors.Is(err, ErrConfiguration) {
				t.Fatalf("error = %v, want ErrConfiguration", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q should mention %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	opts := isolated(t)
	testutil.MustWriteFile(t, filepath.Join(string(opts.ConfigDirPath), "config.cue"), `resolver: root: "from-file"`)
	t.Setenv("CAKEDEPS_RESOLVER_ROOT", "from-env")
	t.Setenv("CAKEDEPS_UI_VERBOSE", "true")

	cfg, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Resolver.Root != "from-env" {
		t.Errorf("root = %q, want from-env", cfg.Resolver.Root)
	}
	if !cfg.UI.Verbose {
		t.Error("expected verbose from environment")
	}
}

func TestLoad_InvalidEnvironmentOverride(t *testing.T) {
	t.Setenv("CAKEDEPS_RESOLVER_SCHEME", "import")

	_, err := NewProvider().Load(context.Background(), isolated(t))
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigurationError, got %T: %v", err, err)
	}
	if cfgErr.Field != "resolver.scheme" {
		t.Errorf("Field = %q, want resolver.scheme", cfgErr.Field)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewProvider().Load(ctx, isolated(t)); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestWriteDefault_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config.cue")
	if err := WriteDefault(path, false); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}

	opts := isolated(t)
	opts.ConfigFilePath = types.FilesystemPath(path)
	cfg, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("loading generated config: %v", err)
	}

	want := DefaultConfig()
	if cfg.Resolver != want.Resolver || cfg.Watch != want.Watch || cfg.UI != want.UI {
		t.Errorf("loaded %+v, want %+v", cfg, want)
	}
	if cfg.Toolchain.Compiler != want.Toolchain.Compiler || cfg.Toolchain.Linker != want.Toolchain.Linker {
		t.Errorf("toolchain = %+v, want %+v", cfg.Toolchain, want.Toolchain)
	}
}

func TestWriteDefault_ExistingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.cue")
	testutil.MustWriteFile(t, path, "// mine\n")

	if err := WriteDefault(path, false); !errors.Is(err, ErrConfiguration) {
		t.Errorf("error = %v, want ErrConfiguration", err)
	}
	if got := testutil.MustReadFile(t, path); got != "// mine\n" {
		t.Errorf("existing file was modified: %q", got)
	}

	if err := WriteDefault(path, true); err != nil {
		t.Fatalf("WriteDefault(force): %v", err)
	}
	if got := testutil.MustReadFile(t, path); !strings.Contains(got, "resolver: {") {
		t.Errorf("forced write did not replace file: %q", got)
	}
}

func TestGenerateCUE_EnvFiles(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Toolchain.EnvFiles = []string{"a.env", "b.env?"}
	out := GenerateCUE(cfg)
	if !strings.Contains(out, "\"a.env\",\n") || !strings.Contains(out, "\"b.env?\",\n") {
		t.Errorf("GenerateCUE() missing env files:\n%s", out)
	}
	if err := validateCUE(t, out); err != nil {
		t.Errorf("generated config does not match schema: %v", err)
	}
}

func TestConfigFileTooLarge(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	path := filepath.Join(string(opts.ConfigDirPath), "config.cue")
	if err := os.WriteFile(path, make([]byte, maxConfigFileSize+1), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewProvider().Load(context.Background(), opts); err == nil {
		t.Error("expected error for oversized config file")
	}
}
