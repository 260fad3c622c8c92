// SPDX-License-Identifier: MPL-2.0

// Package toolchain implements compilation mode. The merged source file is
// handed to a compiler stage that emits assembly, and a linker stage combines
// that assembly with the runtime-support file into the final binary.
//
// Stages are shell command templates executed by the embedded POSIX shell
// interpreter (mvdan.cc/sh), so they behave the same on every platform. Each
// stage sees its inputs and outputs through environment variables:
//
//	CAKE_INPUT    file the stage reads
//	CAKE_OUTPUT   file the stage must produce
//	CAKE_RUNTIME  runtime-support file (linker stage only)
//	CAKE_BUILD_DIR directory holding intermediate artifacts
package toolchain
