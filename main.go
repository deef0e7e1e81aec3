// SPDX-License-Identifier: MPL-2.0

package main

import (
	"os"

	cmd "github.com/bundlesync/bundlesync/cmd/bundlesync"
)

func main() {
	os.Exit(cmd.Main())
}
