// SPDX-License-Identifier: MPL-2.0

// Package cli contains end-to-end tests that drive the sb command with
// testscript.
package cli

import (
	"os"
	"path/filepath"
	"testing"

	cmd "github.com/slicebuild/sb/cmd/sb"

	"github.com/rogpeppe/go-internal/testscript"
)

func TestMain(m *testing.M) {
	// The test binary doubles as the sb binary inside scripts.
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"sb": func() int {
			cmd.Execute()
			return 0
		},
	}))
}

// TestCLI runs every script in testdata.
func TestCLI(t *testing.T) {
	t.Parallel()

	testscript.Run(t, testscript.Params{
		Dir: "testdata",
		Setup: func(env *testscript.Env) error {
			// Keep the default slices root, output dir and config file inside
			// the script's work directory.
			home := filepath.Join(env.WorkDir, "home")
			cfgDir := filepath.Join(env.WorkDir, "config")
			env.Setenv("HOME", home)
			env.Setenv("USERPROFILE", home)
			env.Setenv("XDG_CONFIG_HOME", cfgDir)
			env.Setenv("APPDATA", cfgDir)
			env.Setenv("NO_COLOR", "1")
			return nil
		},
		// Continue running all tests even if one fails
		ContinueOnError: true,
	})
}
