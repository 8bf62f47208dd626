// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for sb.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlagValues holds the persistent flags shared by every subcommand.
type rootFlagValues struct {
	configPath string
	slicesRoot string
	verbose    bool
}

// NewRootCommand builds the sb command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rf := &rootFlagValues{}

	rootCmd := &cobra.Command{
		Use:   "sb",
		Short: "Compose versioned slices into provisioning scripts",
		Long: TitleStyle.Render("sb") + SubtitleStyle.Render(" - slice builder") + `

sb reads a catalog of small, versioned, OS-tagged definition files
("slices"), resolves the dependencies of the layers you ask for, and
writes a single shell script or Dockerfile that installs them in order.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Fetch a catalog:      sb fetch
  2. Inspect it:           sb list --os debian-8
  3. Build a script:       sb make jekyll

` + SubtitleStyle.Render("Examples:") + `
  sb make jekyll -f d -o -     Print a Dockerfile for jekyll
  sb find ruby nodejs          Show what is found and what is missing
  sb graph jekyll -o dot       Dependency tree as Graphviz
  sb check                     Lint the catalog`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(app.stderr, rf.verbose)
			return nil
		},
	}
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	rootCmd.PersistentFlags().BoolVarP(&rf.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&rf.configPath, "config", "", "config file (default is $HOME/.config/sb/config.cue)")
	rootCmd.PersistentFlags().StringVar(&rf.slicesRoot, "root", "", "slices root directory (overrides slices_root)")

	rootCmd.AddCommand(newMakeCommand(app, rf))
	rootCmd.AddCommand(newFindCommand(app, rf))
	rootCmd.AddCommand(newListCommand(app, rf))
	rootCmd.AddCommand(newGraphCommand(app, rf))
	rootCmd.AddCommand(newCheckCommand(app, rf))
	rootCmd.AddCommand(newFetchCommand(app, rf))
	rootCmd.AddCommand(newTestCommand(app, rf))
	rootCmd.AddCommand(newConfigCommand(app, rf))

	return rootCmd
}

// setupLogging installs a charmbracelet/log handler as the slog default.
func setupLogging(w io.Writer, verbose bool) {
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(w, log.Options{
		Prefix: "sb",
		Level:  level,
	})
	slog.SetDefault(slog.New(logger))
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// handleError leaves ExitError alone, since commands report their own
// failures before returning one.
func handleError(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}

// Execute runs the sb command tree. It is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})

	// fang overrides rootCmd.Version, so the version goes through WithVersion.
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(handleError),
	); err != nil {
		os.Exit(exitCode(err))
	}
}
