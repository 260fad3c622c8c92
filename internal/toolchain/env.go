// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnvFiles reads dotenv files in order and merges their variables into
// env, later files overriding earlier ones. Relative paths are resolved
// against baseDir. A path suffixed with '?' is optional and skipped when the
// file does not exist.
func LoadEnvFiles(env map[string]string, paths []string, baseDir string) error {
	for _, path := range paths {
		optional := strings.HasSuffix(path, "?")
		if optional {
			path = strings.TrimSuffix(path, "?")
		}

		fullPath := filepath.FromSlash(path)
		if !filepath.IsAbs(fullPath) {
			fullPath = filepath.Join(baseDir, fullPath)
		}

		if _, err := os.Stat(fullPath); err != nil {
			if optional && os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("read env file '%s': %w", path, err)
		}

		vars, err := godotenv.Read(fullPath)
		if err != nil {
			return fmt.Errorf("parse env file '%s': %w", path, err)
		}
		for k, v := range vars {
			env[k] = v
		}
	}
	return nil
}

// EnvToSlice converts an environment map to KEY=value pairs sorted by key.
func EnvToSlice(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	slices.Sort(out)
	return out
}

// environMap returns the current process environment as a map.
func environMap() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			env[k] = v
		}
	}
	return env
}
