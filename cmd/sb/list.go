// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"cmp"
	"context"
	"fmt"
	"strings"

	"github.com/slicebuild/sb/internal/resolve"
	"github.com/slicebuild/sb/pkg/slice"
	"github.com/slicebuild/sb/pkg/version"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func newListCommand(app *App, rf *rootFlagValues) *cobra.Command {
	rv := &resolveFlagValues{}

	c := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the slices in the catalog",
		Long: `List every slice of the catalog in catalog order with its version,
supported OS entries and path. With --os only slices supporting that OS
are shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.runList(cmd.Context(), rf, rv); err != nil {
				return app.fail(cmd, err, rf.verbose)
			}
			return nil
		},
	}
	addResolveFlags(c, rv)

	return c
}

func (app *App) runList(ctx context.Context, rf *rootFlagValues, rv *resolveFlagValues) error {
	cfg, err := app.loadConfig(ctx, rf)
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	list := cat.Slices()
	if rv.os != "" {
		reqOS, err := resolve.ParseOS(rv.os)
		if err != nil {
			return err
		}
		policy, err := version.ParsePolicy(cmp.Or(rv.policy, cfg.Policy))
		if err != nil {
			return err
		}
		if list, _, err = resolve.FilterByOS(list, reqOS, policy); err != nil {
			return err
		}
	}

	if len(list) == 0 {
		fmt.Fprintln(app.stdout, SubtitleStyle.Render("No slices found."))
		return nil
	}

	rows := make([][]string, 0, len(list))
	for _, s := range list {
		rows = append(rows, []string{s.Name(), s.Version().String(), osColumn(s), relPath(cat.Root(), s.Path())})
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorMuted)).
		Headers("NAME", "VERSION", "OS", "PATH").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	fmt.Fprintln(app.stdout, t.String())
	fmt.Fprintln(app.stdout, SubtitleStyle.Render(fmt.Sprintf("%d slices in %d buckets", len(list), len(cat.Buckets()))))
	return nil
}

// osColumn lists the OS entries of s, or "-" when it has no OS section.
func osColumn(s *slice.Slice) string {
	oses, err := s.OSList()
	if err != nil || len(oses) == 0 {
		return "-"
	}
	names := make([]string, len(oses))
	for i, o := range oses {
		names[i] = o.String()
	}
	return strings.Join(names, " ")
}
