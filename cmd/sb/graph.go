// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"strings"

	"github.com/slicebuild/sb/internal/graph"

	"github.com/spf13/cobra"
)

func newGraphCommand(app *App, rf *rootFlagValues) *cobra.Command {
	rv := &resolveFlagValues{}
	var output string

	formats := make([]string, 0, len(graph.Formats()))
	for _, f := range graph.Formats() {
		formats = append(formats, string(f))
	}

	c := &cobra.Command{
		Use:   "graph [layer...]",
		Short: "Print the resolved dependency tree of layers",
		Long: `Print the dependency tree of the requested layers as resolved for one
OS. A slice reached a second time is marked as repeated and not expanded
again; missing dependencies are listed on the slice that needs them.`,
		Example: `  sb graph jekyll
  sb graph jekyll -o dot | dot -Tsvg > jekyll.svg
  sb graph ruby nodejs -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := graph.ParseFormat(output)
			if err != nil {
				return app.fail(cmd, err, rf.verbose)
			}
			if err := app.runGraph(cmd.Context(), rf, rv, f, args); err != nil {
				return app.fail(cmd, err, rf.verbose)
			}
			return nil
		},
	}
	c.Flags().StringVarP(&output, "output", "o", string(graph.FormatText), "output format: "+strings.Join(formats, ", "))
	addResolveFlags(c, rv)

	return c
}

func (app *App) runGraph(ctx context.Context, rf *rootFlagValues, rv *resolveFlagValues, f graph.Format, layers []string) error {
	cfg, err := app.loadConfig(ctx, rf)
	if err != nil {
		return err
	}
	if len(layers) == 0 {
		if cfg.DefaultLayer == "" {
			return errors.New("no layer requested: pass a layer name or set default_layer")
		}
		layers = []string{cfg.DefaultLayer}
	}

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	r, err := newResolver(cat, cfg, rv)
	if err != nil {
		return err
	}
	ids, err := app.lookupAll(r, layers)
	if err != nil {
		return err
	}

	return graph.Render(app.stdout, graph.Build(r, ids), f)
}
