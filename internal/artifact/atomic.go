// SPDX-License-Identifier: MPL-2.0

package artifact

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/cakedeps/cakedeps/pkg/types"
)

// DefaultFileMode is the permission of artifacts written by WriteFileAtomic.
const DefaultFileMode os.FileMode = 0o644

// WriteFileAtomic writes the output of write to path. The data goes to a
// temporary file in the same directory, which replaces path only when write
// and the final flush succeed. On failure path is left untouched.
func WriteFileAtomic(path types.FilesystemPath, perm os.FileMode, write func(io.Writer) error) (err error) {
	if err := path.Validate(); err != nil {
		return fmt.Errorf("output file: %w", err)
	}

	dir := path.Dir()
	if err := os.MkdirAll(string(dir), 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(string(dir), ".cakedeps-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	renamed := false
	defer func() {
		if !renamed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err := write(bw); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("set permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, string(path)); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	renamed = true
	return nil
}

// WriteTo sends the output of write to path when one is given, and to
// fallback otherwise.
func WriteTo(path types.FilesystemPath, fallback io.Writer, write func(io.Writer) error) error {
	if path == "" {
		return write(fallback)
	}
	return WriteFileAtomic(path, DefaultFileMode, write)
}
