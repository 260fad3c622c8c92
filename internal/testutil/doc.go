// SPDX-License-Identifier: MPL-2.0

// Package testutil has fixture helpers shared by the cakedeps tests: file
// helpers that fail the test on error, and builders for small CakeML
// projects whose first lines carry dependency declarations.
package testutil
