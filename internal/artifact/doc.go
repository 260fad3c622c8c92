// SPDX-License-Identifier: MPL-2.0

// Package artifact turns a resolved closure into the files and streams the
// CLI produces: dependency listings, the concatenated source file and graph
// exports. Files are written atomically: a temporary file in the target
// directory is renamed into place only after it was written completely.
package artifact
