// SPDX-License-Identifier: MPL-2.0

package artifact

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/cakedeps/cakedeps/pkg/cakemod"
	"github.com/cakedeps/cakedeps/pkg/types"
)

// Separator is written between two concatenated files. Each file is newline
// terminated first, so consecutive files are separated by one blank line. An
// empty file becomes a single newline and still occupies its own section.
const Separator = "\n"

// Concatenate writes the full contents of files to w in order. A file that
// cannot be read is a *cakemod.NotFoundError.
func Concatenate(w io.Writer, files []types.FilesystemPath) error {
	for i, f := range files {
		data, err := os.ReadFile(string(f))
		if err != nil {
			return &cakemod.NotFoundError{Path: f, Err: err}
		}
		if i > 0 {
			if _, err := io.WriteString(w, Separator); err != nil {
				return fmt.Errorf("write separator: %w", err)
			}
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("write %s: %w", f, err)
		}
		if !bytes.HasSuffix(data, []byte("\n")) {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return fmt.Errorf("write %s: %w", f, err)
			}
		}
	}
	return nil
}

// WriteConcatenation concatenates files into output, replacing it atomically.
func WriteConcatenation(output types.FilesystemPath, files []types.FilesystemPath) error {
	return WriteFileAtomic(output, DefaultFileMode, func(w io.Writer) error {
		return Concatenate(w, files)
	})
}
