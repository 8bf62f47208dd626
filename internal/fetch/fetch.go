// SPDX-License-Identifier: MPL-2.0

// Package fetch downloads slice buckets into a local slices root, either by
// shallow-cloning the newest version branch of a git repository or by
// extracting a zip archive.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
	"golang.org/x/mod/semver"
)

// BucketPrefix is prepended to a branch name to form the bucket directory.
const BucketPrefix = "slices-"

var (
	// ErrNoVersionBranch is returned when a repository has no branch named
	// after a version.
	ErrNoVersionBranch = errors.New("no version branch found")
	// ErrInvalidArchive is returned when a downloaded file is not a zip archive.
	ErrInvalidArchive = errors.New("invalid archive")
)

type (
	// Fetcher retrieves slice buckets into Root.
	Fetcher struct {
		root       string
		httpClient *http.Client
		userAgent  string
		logger     *slog.Logger
	}

	// Option configures a Fetcher during construction.
	Option func(*Fetcher)

	// Branch is a remote branch whose name parses as a version.
	Branch struct {
		Name   string
		Commit string
	}

	// Result describes what a fetch put on disk.
	Result struct {
		// Path is the bucket directory that was written or already present.
		Path string
		// Source is the branch name or archive URL.
		Source string
		// Skipped is set when the bucket existed and force was not requested.
		Skipped bool
	}
)

// WithHTTPClient sets a custom HTTP client for archive downloads.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.httpClient = c
	}
}

// WithUserAgent sets the User-Agent header sent with archive downloads.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithLogger sets the logger for progress messages.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// New creates a Fetcher writing into root.
func New(root string, opts ...Option) *Fetcher {
	f := &Fetcher{
		root:       root,
		httpClient: http.DefaultClient,
		userAgent:  "sb/dev",
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Root returns the slices root the fetcher writes into.
func (f *Fetcher) Root() string { return f.root }

// Branches lists the version-named branches of repoURL, newest first.
func (f *Fetcher) Branches(ctx context.Context, repoURL string) ([]Branch, error) {
	// In-memory storage lists remote refs without cloning.
	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: "origin",
		URLs: []string{repoURL},
	})

	refs, err := remote.ListContext(ctx, &git.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list remote refs of %s: %w", repoURL, err)
	}

	var all []Branch
	for _, ref := range refs {
		if ref.Name().IsBranch() {
			all = append(all, Branch{Name: ref.Name().Short(), Commit: ref.Hash().String()})
		}
	}
	return VersionBranches(all), nil
}

// VersionBranches keeps the branches whose name is a version ("1.2.0",
// "1.2" or "v1.2.0") and sorts them newest first. Names such as "master"
// are dropped.
func VersionBranches(branches []Branch) []Branch {
	out := make([]Branch, 0, len(branches))
	for _, b := range branches {
		if semver.IsValid(canonical(b.Name)) {
			out = append(out, b)
		}
	}
	slices.SortStableFunc(out, func(a, b Branch) int {
		return semver.Compare(canonical(b.Name), canonical(a.Name))
	})
	return out
}

func canonical(name string) string {
	if strings.HasPrefix(name, "v") {
		return name
	}
	return "v" + name
}

// FetchRepo shallow-clones the newest version branch of repoURL into
// <root>/slices-<branch>. An existing bucket is kept unless force is set.
func (f *Fetcher) FetchRepo(ctx context.Context, repoURL string, force bool) (Result, error) {
	branches, err := f.Branches(ctx, repoURL)
	if err != nil {
		return Result{}, err
	}
	if len(branches) == 0 {
		return Result{}, fmt.Errorf("%w in %s", ErrNoVersionBranch, repoURL)
	}
	latest := branches[0]

	dest := filepath.Join(f.root, BucketPrefix+strings.TrimPrefix(latest.Name, "v"))
	res := Result{Path: dest, Source: latest.Name}

	ok, err := f.prepareDest(dest, force)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		f.logger.Info("bucket already present", "path", dest, "branch", latest.Name)
		res.Skipped = true
		return res, nil
	}

	f.logger.Info("cloning", "repo", repoURL, "branch", latest.Name, "dest", dest)
	_, err = git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{
		URL:           repoURL,
		ReferenceName: plumbing.NewBranchReferenceName(latest.Name),
		SingleBranch:  true,
		Depth:         1,
	})
	if err != nil {
		_ = os.RemoveAll(dest) // Best-effort cleanup of a partial clone
		return Result{}, fmt.Errorf("failed to clone %s at %s: %w", repoURL, latest.Name, err)
	}

	return res, nil
}

// prepareDest reports whether dest should be written. With force an existing
// directory is removed first.
func (f *Fetcher) prepareDest(dest string, force bool) (bool, error) {
	if _, err := os.Stat(dest); err == nil {
		if !force {
			return false, nil
		}
		if err := os.RemoveAll(dest); err != nil {
			return false, fmt.Errorf("failed to remove existing bucket: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return false, fmt.Errorf("failed to create slices root: %w", err)
	}
	return true, nil
}
