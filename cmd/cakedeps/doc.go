// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the cakedeps command tree.
//
// Every command resolves the transitive dependencies of an entry file and
// hands the resulting closure to one consumer: a listing, a concatenated
// source file, a compiled binary, a graph, or an unused-file report. Handlers
// receive an *App and return errors; Execute maps them to exit codes.
package cmd
