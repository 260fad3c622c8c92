// SPDX-License-Identifier: MPL-2.0

// Package types holds the small typed values shared across cakedeps packages.
// Each type validates itself and reports failures through a typed error that
// unwraps to a package-level sentinel.
package types
