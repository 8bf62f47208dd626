// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"

	"github.com/slicebuild/sb/internal/resolve"

	"github.com/spf13/cobra"
)

func newFindCommand(app *App, rf *rootFlagValues) *cobra.Command {
	rv := &resolveFlagValues{}

	c := &cobra.Command{
		Use:   "find <name>...",
		Short: "Report which requested slices exist for an OS",
		Long: `Resolve the catalog for one OS and print four sections:

  All similar:        slices whose name contains a requested name
  All missing:        every dependency missing anywhere in the catalog
  Found requested:    requested slices that resolved
  Missing requested:  requested slices that did not

Each section prints "None" when it is empty.`,
		Example: `  sb find ruby
  sb find jekyll-3.0 nodejs --os debian-8`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.runFind(cmd.Context(), rf, rv, args); err != nil {
				return app.fail(cmd, err, rf.verbose)
			}
			return nil
		},
	}
	addResolveFlags(c, rv)

	return c
}

func (app *App) runFind(ctx context.Context, rf *rootFlagValues, rv *resolveFlagValues, requests []string) error {
	cfg, err := app.loadConfig(ctx, rf)
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	r, err := newResolver(cat, cfg, rv)
	if err != nil {
		return err
	}

	var (
		similarIDs []resolve.NodeID
		found      []string
		missing    []string
	)
	for _, req := range requests {
		for _, id := range r.FindSimilarSlices(req) {
			if !slices.Contains(similarIDs, id) {
				similarIDs = append(similarIDs, id)
			}
		}
		id, lookupErr := r.Lookup(req)
		switch {
		case lookupErr == nil:
			found = append(found, relPath(cat.Root(), r.Slice(id).Path()))
		case errors.Is(lookupErr, resolve.ErrSliceNotFound):
			missing = append(missing, req)
		default:
			return lookupErr
		}
	}

	similar := make([]string, len(similarIDs))
	for i, id := range similarIDs {
		similar[i] = relPath(cat.Root(), r.Slice(id).Path())
	}

	printSection(app.stdout, "All similar", similar)
	fmt.Fprintln(app.stdout)
	printSection(app.stdout, "All missing", r.UnresolvedDependencies())
	fmt.Fprintln(app.stdout)
	printSection(app.stdout, "Found requested", found)
	fmt.Fprintln(app.stdout)
	printSection(app.stdout, "Missing requested", missing)
	return nil
}

// printSection writes a report header followed by one indented item per
// line, or the header and "None".
func printSection(w io.Writer, header string, items []string) {
	if len(items) == 0 {
		fmt.Fprintln(w, TitleStyle.Render(header+":")+" "+SubtitleStyle.Render("None"))
		return
	}
	fmt.Fprintln(w, TitleStyle.Render(header+":"))
	for _, item := range items {
		fmt.Fprintln(w, "  "+item)
	}
}

// relPath returns p relative to root with forward slashes, or p unchanged
// when it is not below root.
func relPath(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return p
	}
	return filepath.ToSlash(rel)
}
