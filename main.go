// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/slicebuild/sb/cmd/sb"

func main() {
	cmd.Execute()
}
