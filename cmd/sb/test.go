// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const defaultTestTag = "sb-test"

func newTestCommand(app *App, rf *rootFlagValues) *cobra.Command {
	mf := &makeFlagValues{}
	var tag string

	c := &cobra.Command{
		Use:   "test [layer...]",
		Short: "Build the Dockerfile of layers with docker",
		Long: `Emit a Dockerfile for the requested layers into a temporary directory
and run "docker build" on it. The docker CLI must be on PATH.`,
		Example: `  sb test jekyll
  sb test jekyll --os debian-8 --tag jekyll:dev`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.runTest(cmd.Context(), rf, mf, tag, args); err != nil {
				return app.fail(cmd, err, rf.verbose)
			}
			return nil
		},
	}
	c.Flags().StringVarP(&tag, "tag", "t", defaultTestTag, "image tag passed to docker build")
	addResolveFlags(c, &mf.resolveFlagValues)

	return c
}

func (app *App) runTest(ctx context.Context, rf *rootFlagValues, mf *makeFlagValues, tag string, layers []string) error {
	dir, err := os.MkdirTemp("", "sb-test-*")
	if err != nil {
		return fmt.Errorf("failed to create build directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }() // Best-effort cleanup

	dockerMake := *mf
	dockerMake.format = "d"
	dockerMake.out = filepath.Join(dir, "Dockerfile")
	if _, err := app.runMake(ctx, rf, &dockerMake, layers); err != nil {
		return err
	}

	fmt.Fprintf(app.stdout, "%s Building %s\n", SubtitleStyle.Render("→"), SliceStyle.Render(tag))
	if err := app.Docker.Build(ctx, dir, tag, app.stdout, app.stderr); err != nil {
		return err
	}
	fmt.Fprintf(app.stdout, "%s Built %s\n", successIcon, SliceStyle.Render(tag))
	return nil
}
