// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/cakedeps/cakedeps/cmd/cakedeps"

func main() {
	cmd.Execute()
}
