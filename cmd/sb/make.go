// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/slicebuild/sb/internal/catalog"
	"github.com/slicebuild/sb/internal/config"
	"github.com/slicebuild/sb/internal/emit"
	"github.com/slicebuild/sb/internal/watch"

	"github.com/spf13/cobra"
)

// stdoutPath selects standard output for --out.
const stdoutPath = "-"

type makeFlagValues struct {
	resolveFlagValues
	format string
	out    string
	watch  bool
}

func newMakeCommand(app *App, rf *rootFlagValues) *cobra.Command {
	mf := &makeFlagValues{}

	c := &cobra.Command{
		Use:   "make [layer...]",
		Short: "Write a shell script or Dockerfile for the requested layers",
		Long: `Resolve the requested layers and their dependencies for one OS and
write them, dependencies first, as a shell script or a Dockerfile.

A layer is a slice name ("jekyll") or a name and version ("jekyll-3.0").
With no layer the configured default_layer is built. Nothing is written
when any requested layer has a missing dependency; every missing link is
listed instead.

The output goes to <output_dir>/<layer-id> unless --out is given.`,
		Example: `  sb make jekyll
  sb make jekyll --os debian-8 -f d -o Dockerfile
  sb make ruby-2.2 --policy exact -o -
  sb make jekyll --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if mf.watch {
				return runMakeWatch(cmd, app, rf, mf, args)
			}
			if _, err := app.runMake(cmd.Context(), rf, mf, args); err != nil {
				return app.fail(cmd, err, rf.verbose)
			}
			return nil
		},
	}

	c.Flags().StringVarP(&mf.format, "format", "f", "", "output format: sh or d (default from format)")
	c.Flags().StringVarP(&mf.out, "out", "o", "", `output file, "-" for stdout (default <output_dir>/<layer-id>)`)
	c.Flags().BoolVarP(&mf.watch, "watch", "w", false, "rebuild whenever the slices root changes")
	addResolveFlags(c, &mf.resolveFlagValues)

	return c
}

// runMake performs one build and returns the path written, or stdoutPath.
func (app *App) runMake(ctx context.Context, rf *rootFlagValues, mf *makeFlagValues, layers []string) (string, error) {
	cfg, err := app.loadConfig(ctx, rf)
	if err != nil {
		return "", err
	}

	formatName := cmp.Or(mf.format, string(cfg.Format))
	formatter, err := emit.ParseFormat(formatName)
	if err != nil {
		return "", err
	}

	if len(layers) == 0 {
		if cfg.DefaultLayer == "" {
			return "", errors.New("no layer requested: pass a layer name or set default_layer")
		}
		layers = []string{cfg.DefaultLayer}
	}

	cat, err := loadCatalog(cfg)
	if err != nil {
		return "", err
	}
	r, err := newResolver(cat, cfg, &mf.resolveFlagValues)
	if err != nil {
		return "", err
	}
	ids, err := app.lookupAll(r, layers)
	if err != nil {
		return "", err
	}

	if unresolved := r.UnresolvedDependencies(); len(unresolved) > 0 {
		fmt.Fprintf(app.stderr, "%s Unresolved dependencies for %s: %s\n",
			warningIcon, r.Options().OS, strings.Join(unresolved, ", "))
	}

	script, err := emit.Emit(r, ids, formatter)
	if err != nil {
		var missing *emit.MissingDependenciesError
		if errors.As(err, &missing) {
			for _, l := range missing.Links {
				fmt.Fprintf(app.stderr, "%s depends on %s, but it is missing\n",
					SliceStyle.Render(l.Slice), ErrorStyle.Render(l.Dependency))
			}
		}
		return "", err
	}

	switch formatter.(type) {
	case emit.Shell:
		if vErr := emit.ValidateShell(script); vErr != nil {
			slog.Warn("generated script does not parse as shell", "err", vErr)
		}
	case emit.Docker:
		if !strings.HasPrefix(script, "FROM ") {
			slog.Warn("generated Dockerfile has no FROM line", "os", r.Options().OS.String())
		}
	}

	if mf.out == stdoutPath {
		fmt.Fprint(app.stdout, script)
		return stdoutPath, nil
	}

	path := mf.out
	if path == "" {
		path = filepath.Join(cfg.OutputDir, r.Slice(ids[0]).ID())
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		return "", fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Fprintln(app.stdout, SuccessStyle.Render("Wrote ")+path)
	return path, nil
}

// runMakeWatch builds once and then rebuilds on every change under the
// slices root until the command context is canceled.
func runMakeWatch(cmd *cobra.Command, app *App, rf *rootFlagValues, mf *makeFlagValues, layers []string) error {
	ctx := cmd.Context()
	cfg, err := app.loadConfig(ctx, rf)
	if err != nil {
		return app.fail(cmd, err, rf.verbose)
	}

	if _, err := app.runMake(ctx, rf, mf, layers); err != nil {
		app.report(err, rf.verbose)
	}

	w, err := watch.New(watch.Options{
		Root:   cfg.SlicesRoot,
		Ignore: watchIgnore(cfg, mf.out),
		OnChange: func(ctx context.Context, changed []string) error {
			slog.Debug("rebuilding", "changed", strings.Join(changed, ", "))
			if _, err := app.runMake(ctx, rf, mf, layers); err != nil {
				app.report(err, rf.verbose)
			}
			return nil
		},
	})
	if err != nil {
		return app.fail(cmd, err, rf.verbose)
	}

	fmt.Fprintln(app.stderr, SubtitleStyle.Render("Watching "+cfg.SlicesRoot+" (Ctrl+C to stop)"))
	if err := w.Run(ctx); err != nil {
		return app.fail(cmd, err, rf.verbose)
	}
	return nil
}

// watchIgnore extends the catalog ignore list with the output location when
// it lies inside the slices root, so writing the result does not retrigger
// a build.
func watchIgnore(cfg *config.Config, out string) []string {
	patterns := slices.Clone(catalog.DefaultIgnore)
	dir := cfg.OutputDir
	if out != "" && out != stdoutPath {
		dir = filepath.Dir(out)
	}
	absRoot, err1 := filepath.Abs(cfg.SlicesRoot)
	absDir, err2 := filepath.Abs(dir)
	if err1 != nil || err2 != nil {
		return patterns
	}
	rel, err := filepath.Rel(absRoot, absDir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return patterns
	}
	rel = filepath.ToSlash(rel)
	return append(patterns, rel, rel+"/**")
}
