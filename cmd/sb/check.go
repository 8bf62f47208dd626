// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/slicebuild/sb/internal/catalog"
	"github.com/slicebuild/sb/internal/config"
	"github.com/slicebuild/sb/internal/dag"
	"github.com/slicebuild/sb/internal/resolve"
	"github.com/slicebuild/sb/pkg/slice"
	"github.com/slicebuild/sb/pkg/version"

	"github.com/spf13/cobra"
)

// checkReport counts what `sb check` found.
type checkReport struct {
	warnings int
	errors   int
}

func newCheckCommand(app *App, rf *rootFlagValues) *cobra.Command {
	var policy string

	c := &cobra.Command{
		Use:   "check",
		Short: "Lint the slice catalog",
		Long: `Load the catalog and report:

  - files that could not be read as slices (warning)
  - slices without an OS section (warning)
  - dependency cycles between slices (error)
  - for every OS named in the catalog, dependencies that no slice provides (error)

The command exits with status 1 when any error is found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := app.runCheck(cmd.Context(), rf, policy)
			if err != nil {
				return app.fail(cmd, err, rf.verbose)
			}
			if rep.errors > 0 {
				cmd.SilenceUsage = true
				cmd.SilenceErrors = true
				return &ExitError{Code: 1}
			}
			return nil
		},
	}
	c.Flags().StringVar(&policy, "policy", "", "version policy used to resolve each OS (default from policy)")

	return c
}

func (app *App) runCheck(ctx context.Context, rf *rootFlagValues, policyFlag string) (checkReport, error) {
	var rep checkReport

	cfg, err := app.loadConfig(ctx, rf)
	if err != nil {
		return rep, err
	}
	policy, err := version.ParsePolicy(cmp.Or(policyFlag, cfg.Policy))
	if err != nil {
		return rep, err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return rep, err
	}

	fmt.Fprintf(app.stdout, "%s %d slices in %d buckets\n", successIcon, cat.Len(), len(cat.Buckets()))

	for _, d := range cat.Diagnostics() {
		if d.Severity != catalog.SeverityWarning && !rf.verbose {
			continue
		}
		if d.Severity == catalog.SeverityWarning {
			rep.warnings++
		}
		app.printFinding(warningIcon, d.Code, relPath(cat.Root(), d.Path), d.Message)
	}

	for _, s := range cat.Slices() {
		if !s.HasOSSection() {
			rep.warnings++
			app.printFinding(warningIcon, resolve.CodeNoOSSection, relPath(cat.Root(), s.Path()),
				s.ID()+" has no OS section and is never resolved")
		}
	}

	if _, sortErr := cat.DependencyGraph().TopologicalSort(); sortErr != nil {
		var cycleErr *dag.CycleError
		if !errors.As(sortErr, &cycleErr) {
			return rep, sortErr
		}
		rep.errors++
		app.printFinding(errorIcon, resolve.CodeDependencyCycle, "", "dependency cycle: "+strings.Join(cycleErr.Cycle, " -> "))
	}

	for _, o := range catalogOSes(cat.Slices()) {
		missing, resolveErr := unresolvedFor(cat, cfg, o, policy)
		if resolveErr != nil {
			return rep, resolveErr
		}
		if len(missing) == 0 {
			fmt.Fprintf(app.stdout, "%s %s resolves completely\n", successIcon, SliceStyle.Render(o.String()))
			continue
		}
		rep.errors++
		app.printFinding(errorIcon, "missing_dependency", o.String(), "missing "+strings.Join(missing, ", "))
	}

	fmt.Fprintln(app.stdout)
	summary := fmt.Sprintf("%d error(s), %d warning(s)", rep.errors, rep.warnings)
	if rep.errors > 0 {
		fmt.Fprintf(app.stdout, "%s Check failed: %s\n", errorIcon, summary)
	} else {
		fmt.Fprintf(app.stdout, "%s Check passed: %s\n", successIcon, summary)
	}
	return rep, nil
}

// printFinding writes one check result line, with the location on its own
// line when there is one.
func (app *App) printFinding(icon, code, where, msg string) {
	tag := codeStyle.Render("[" + code + "]")
	if where == "" {
		fmt.Fprintf(app.stdout, "%s %s %s\n", icon, tag, msg)
		return
	}
	fmt.Fprintf(app.stdout, "%s %s %s\n    %s\n", icon, tag, where, msg)
}

// catalogOSes collects the distinct OS entries named by list, sorted by
// name and version.
func catalogOSes(list []*slice.Slice) []slice.OS {
	var out []slice.OS
	for _, s := range list {
		oses, err := s.OSList()
		if err != nil {
			continue
		}
		for _, o := range oses {
			if !slices.ContainsFunc(out, func(x slice.OS) bool { return x.Name == o.Name && x.Version.Equal(o.Version) }) {
				out = append(out, o)
			}
		}
	}
	slices.SortFunc(out, func(a, b slice.OS) int {
		return cmp.Or(strings.Compare(a.Name, b.Name), a.Version.Compare(b.Version))
	})
	return out
}

// unresolvedFor resolves the whole catalog for o and returns the dependency
// names nothing provides.
func unresolvedFor(cat *catalog.Catalog, cfg *config.Config, o slice.OS, policy version.Policy) ([]string, error) {
	r, err := resolve.New(cat.Slices(), resolve.Options{
		OS:               o,
		Policy:           policy,
		OSBaseDependency: cfg.OSBaseDependency,
	})
	if err != nil {
		return nil, err
	}
	return r.UnresolvedDependencies(), nil
}
