// SPDX-License-Identifier: MPL-2.0

// Package cli contains CLI integration tests using testscript.
//
// The bundlesync command is registered in-process, so scripts exercise the
// real command tree without building a binary first.
package cli

import (
	"os"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"

	cmd "github.com/bundlesync/bundlesync/cmd/bundlesync"
)

func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"bundlesync": cmd.Main,
	}))
}

// TestCLI runs all testscript tests in the testdata directory.
func TestCLI(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata",
		Setup: func(env *testscript.Env) error {
			env.Setenv("HOME", env.WorkDir)
			env.Setenv("NO_COLOR", "1")
			return nil
		},
		// Continue running all tests even if one fails
		ContinueOnError: true,
	})
}
