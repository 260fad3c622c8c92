// SPDX-License-Identifier: MPL-2.0

// Package cakemod resolves dependencies between CakeML source files.
//
// A file declares its dependencies on its first line using a fixed comment
// syntax, for example:
//
//	(* deps: Util.Strings @Lib.Json *)
//
// Each token is a module reference. A plain reference ("Util.Strings") is
// resolved against the directory of the declaring file, a root-qualified one
// ("@Lib.Json") against the project root. Dots become path separators and the
// ".cml" extension is appended.
//
// Reader extracts and resolves the references of one file. Builder walks the
// references transitively from an entry file and returns a Closure whose
// Files are ordered so that every dependency precedes its dependents.
package cakemod
