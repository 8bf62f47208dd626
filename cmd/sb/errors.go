// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"

	"github.com/slicebuild/sb/internal/catalog"
	"github.com/slicebuild/sb/internal/config"
	"github.com/slicebuild/sb/internal/dag"
	"github.com/slicebuild/sb/internal/emit"
	"github.com/slicebuild/sb/internal/fetch"
	"github.com/slicebuild/sb/internal/issue"
	"github.com/slicebuild/sb/internal/resolve"
	"github.com/slicebuild/sb/pkg/slice"
	"github.com/slicebuild/sb/pkg/version"

	"github.com/spf13/cobra"
)

// errFetch marks failures of `sb fetch` for issue lookup.
var errFetch = errors.New("fetch failed")

// issueFor maps err to the issue that explains it, or 0 when none applies.
func issueFor(err error) issue.Id {
	var cycleErr *dag.CycleError
	switch {
	case errors.Is(err, catalog.ErrCatalogRootNotFound):
		return issue.CatalogRootNotFoundId
	case errors.Is(err, catalog.ErrEmptyCatalog):
		return issue.EmptyCatalogId
	case errors.Is(err, version.ErrInvalidVersion):
		return issue.InvalidVersionId
	case errors.Is(err, resolve.ErrSliceNotFound):
		return issue.SliceNotFoundId
	case errors.Is(err, emit.ErrMissingDependencies):
		return issue.MissingDependenciesId
	case errors.Is(err, slice.ErrMissingOSSection):
		return issue.MissingOSSectionId
	case errors.As(err, &cycleErr):
		return issue.DependencyCycleId
	case errors.Is(err, config.ErrInvalidConfig), errors.Is(err, config.ErrConfigFileNotFound):
		return issue.ConfigLoadFailedId
	case errors.Is(err, errFetch), errors.Is(err, fetch.ErrNoVersionBranch), errors.Is(err, fetch.ErrInvalidArchive):
		return issue.FetchFailedId
	case errors.Is(err, exec.ErrNotFound):
		return issue.DockerNotFoundId
	case errors.Is(err, fs.ErrPermission):
		return issue.PermissionDeniedId
	default:
		return 0
	}
}

// fail prints err and its issue guidance to stderr and returns the
// ExitError for the command. Errors with a known issue exit 1, anything else
// exits 2.
func (app *App) fail(c *cobra.Command, err error, verbose bool) error {
	c.SilenceErrors = true
	c.SilenceUsage = true

	if app.report(err, verbose) == 0 {
		return &ExitError{Code: 2, Err: err}
	}
	return &ExitError{Code: 1, Err: err}
}

// report prints err and, when one applies, the rendered issue guidance. It
// returns the issue id, or 0.
func (app *App) report(err error, verbose bool) issue.Id {
	fmt.Fprintln(app.stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))

	id := issueFor(err)
	if id == 0 {
		return 0
	}
	if iss := issue.Get(id); iss != nil {
		if rendered, renderErr := iss.Render(glamourStyle(app.stderr)); renderErr == nil {
			fmt.Fprint(app.stderr, rendered)
		}
	}
	return id
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}

// glamourStyle picks "dark" for terminals and "notty" for pipes and files.
func glamourStyle(w io.Writer) string {
	if f, ok := w.(*os.File); ok {
		if info, err := f.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
			return "dark"
		}
	}
	return "notty"
}
