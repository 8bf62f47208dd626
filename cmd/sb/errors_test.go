// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"testing"

	"github.com/slicebuild/sb/internal/catalog"
	"github.com/slicebuild/sb/internal/config"
	"github.com/slicebuild/sb/internal/dag"
	"github.com/slicebuild/sb/internal/emit"
	"github.com/slicebuild/sb/internal/fetch"
	"github.com/slicebuild/sb/internal/issue"
	"github.com/slicebuild/sb/internal/resolve"
	"github.com/slicebuild/sb/pkg/slice"
	"github.com/slicebuild/sb/pkg/version"
)

func TestIssueFor(t *testing.T) {
	t.Parallel()

	_, versionErr := version.Parse("1.x")

	tests := []struct {
		name string
		err  error
		want issue.Id
	}{
		{"root not found", fmt.Errorf("%w: /nope", catalog.ErrCatalogRootNotFound), issue.CatalogRootNotFoundId},
		{"empty catalog", catalog.ErrEmptyCatalog, issue.EmptyCatalogId},
		{"invalid version", fmt.Errorf("bucket x: %w", versionErr), issue.InvalidVersionId},
		{"slice not found", &resolve.SliceNotFoundError{Request: "nodejs"}, issue.SliceNotFoundId},
		{"missing deps", &emit.MissingDependenciesError{Links: []resolve.MissingLink{{Slice: "ruby", Dependency: "wget"}}}, issue.MissingDependenciesId},
		{"missing OS section", slice.ErrMissingOSSection, issue.MissingOSSectionId},
		{"cycle", &dag.CycleError{Cycle: []string{"a", "b", "a"}}, issue.DependencyCycleId},
		{"invalid config", &config.InvalidConfigError{}, issue.ConfigLoadFailedId},
		{"fetch", fmt.Errorf("%w: %w", errFetch, errors.New("timeout")), issue.FetchFailedId},
		{"no version branch", fetch.ErrNoVersionBranch, issue.FetchFailedId},
		{"docker missing", fmt.Errorf("docker: %w", exec.ErrNotFound), issue.DockerNotFoundId},
		{"permission", fs.ErrPermission, issue.PermissionDeniedId},
		{"unknown", errors.New("boom"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := issueFor(tt.err); got != tt.want {
				t.Errorf("issueFor(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIssueFor_EveryIdHasAnIssue(t *testing.T) {
	t.Parallel()

	for _, id := range []issue.Id{
		issue.CatalogRootNotFoundId, issue.EmptyCatalogId, issue.InvalidVersionId,
		issue.SliceNotFoundId, issue.MissingDependenciesId, issue.MissingOSSectionId,
		issue.DependencyCycleId, issue.ConfigLoadFailedId, issue.FetchFailedId,
		issue.DockerNotFoundId, issue.PermissionDeniedId,
	} {
		if issue.Get(id) == nil {
			t.Errorf("no issue registered for id %d", id)
		}
	}
}

func TestFormatErrorForDisplay(t *testing.T) {
	t.Parallel()

	plain := errors.New("plain failure")
	if got := formatErrorForDisplay(plain, false); got != "plain failure" {
		t.Errorf("plain error = %q", got)
	}

	ae := issue.NewErrorContext().
		WithOperation("load catalog").
		WithResource("/srv/slices").
		WithSuggestion("Run 'sb fetch'").
		Wrap(catalog.ErrEmptyCatalog).
		Build()
	got := formatErrorForDisplay(ae, false)
	if got != ae.Format(false) {
		t.Errorf("actionable error = %q, want Format output", got)
	}
}
