// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"

	"github.com/slicebuild/sb/internal/fetch"

	"github.com/spf13/cobra"
)

type fetchFlagValues struct {
	repo  string
	url   string
	force bool
}

func newFetchCommand(app *App, rf *rootFlagValues) *cobra.Command {
	ff := &fetchFlagValues{}

	c := &cobra.Command{
		Use:   "fetch",
		Short: "Download slice buckets into the slices root",
		Long: `Download slices into the slices root.

By default the newest version branch of fetch.repo is shallow-cloned into
<slices_root>/slices-<version>. Branches that are not versions, such as
master, are ignored. With --url (or fetch.archive_url) a zip archive is
downloaded instead and each of its top-level directories becomes a bucket.

An existing bucket is left alone unless --force is given.`,
		Example: `  sb fetch
  sb fetch --repo https://github.com/example/slices
  sb fetch --url https://example.com/slices-1.0.zip --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.runFetch(cmd.Context(), rf, ff); err != nil {
				return app.fail(cmd, err, rf.verbose)
			}
			return nil
		},
	}
	c.Flags().StringVar(&ff.repo, "repo", "", "git repository to clone (default from fetch.repo)")
	c.Flags().StringVar(&ff.url, "url", "", "zip archive to download instead of cloning (default from fetch.archive_url)")
	c.Flags().BoolVar(&ff.force, "force", false, "replace buckets that already exist")
	c.MarkFlagsMutuallyExclusive("repo", "url")

	return c
}

func (app *App) runFetch(ctx context.Context, rf *rootFlagValues, ff *fetchFlagValues) error {
	cfg, err := app.loadConfig(ctx, rf)
	if err != nil {
		return err
	}

	f := fetch.New(cfg.SlicesRoot,
		fetch.WithUserAgent("sb/"+Version),
		fetch.WithLogger(slog.Default()),
	)

	var res fetch.Result
	if archiveURL := cmp.Or(ff.url, cfg.Fetch.ArchiveURL); archiveURL != "" && ff.repo == "" {
		res, err = f.FetchArchive(ctx, archiveURL, ff.force)
	} else {
		res, err = f.FetchRepo(ctx, cmp.Or(ff.repo, cfg.Fetch.Repo), ff.force)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", errFetch, err)
	}

	if res.Skipped {
		fmt.Fprintf(app.stdout, "%s %s already exists, use --force to replace it\n", warningIcon, res.Path)
		return nil
	}
	fmt.Fprintf(app.stdout, "%s Fetched %s into %s\n", successIcon, SliceStyle.Render(res.Source), res.Path)
	return nil
}
