// SPDX-License-Identifier: MPL-2.0

// Package issue holds the catalog of extended help shown for each kind of
// cakedeps failure, and ActionableError, which attaches the failed
// operation and remediation hints to an error.
package issue
