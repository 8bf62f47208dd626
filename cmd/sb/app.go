// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"github.com/slicebuild/sb/internal/catalog"
	"github.com/slicebuild/sb/internal/config"
	"github.com/slicebuild/sb/internal/resolve"
	"github.com/slicebuild/sb/pkg/version"

	"github.com/spf13/cobra"
)

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives an App and loads configuration, catalogs and resolvers through it.
	App struct {
		Config ConfigProvider
		Docker DockerBuilder
		stdout io.Writer
		stderr io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Docker DockerBuilder
		Stdout io.Writer
		Stderr io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// DockerBuilder builds the Dockerfile in dir and tags the image.
	DockerBuilder interface {
		Build(ctx context.Context, dir, tag string, stdout, stderr io.Writer) error
	}

	// execDockerBuilder shells out to the docker CLI.
	execDockerBuilder struct{}

	// resolveFlagValues holds the flags that select how a catalog is resolved.
	resolveFlagValues struct {
		os     string
		policy string
	}
)

// NewApp creates an App, filling nil dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config: deps.Config,
		Docker: deps.Docker,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.Docker == nil {
		app.Docker = execDockerBuilder{}
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// Build runs `docker build -t tag dir`.
func (execDockerBuilder) Build(ctx context.Context, dir, tag string, stdout, stderr io.Writer) error {
	bin, err := exec.LookPath("docker")
	if err != nil {
		return fmt.Errorf("docker: %w", err)
	}
	c := exec.CommandContext(ctx, bin, "build", "-t", tag, dir)
	c.Stdout = stdout
	c.Stderr = stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("docker build: %w", err)
	}
	return nil
}

// loadConfig loads configuration and applies the --root override.
func (app *App) loadConfig(ctx context.Context, rf *rootFlagValues) (*config.Config, error) {
	cfg, err := app.Config.Load(ctx, config.LoadOptions{ConfigFilePath: rf.configPath})
	if err != nil {
		return nil, err
	}
	if rf.slicesRoot != "" {
		cfg.SlicesRoot = config.ExpandHome(rf.slicesRoot)
	}
	return cfg, nil
}

// loadCatalog reads the catalog under cfg.SlicesRoot. Loader diagnostics are
// logged at debug level.
func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	cat, err := catalog.NewLoader(cfg.SlicesRoot, catalog.WithLogger(slog.Default())).Load()
	if err != nil {
		return nil, err
	}
	for _, d := range cat.Diagnostics() {
		slog.Debug(d.Message, "code", d.Code, "path", d.Path, "severity", string(d.Severity))
	}
	return cat, nil
}

// addResolveFlags registers --os and --policy on c.
func addResolveFlags(c *cobra.Command, rv *resolveFlagValues) {
	c.Flags().StringVar(&rv.os, "os", "", "requested OS as name or name-version (default from default_os)")
	c.Flags().StringVar(&rv.policy, "policy", "", "version policy: exact, exact-or-lesser or exact-or-greater (default from policy)")
}

// requestedOS returns the OS named by the flag or the configured default.
func (rv *resolveFlagValues) requestedOS(cfg *config.Config) (string, error) {
	name := cmp.Or(rv.os, cfg.DefaultOS)
	if name == "" {
		return "", errors.New("no OS requested: pass --os or set default_os")
	}
	return name, nil
}

// newResolver resolves cat for the requested OS and policy.
func newResolver(cat *catalog.Catalog, cfg *config.Config, rv *resolveFlagValues) (*resolve.Resolver, error) {
	osName, err := rv.requestedOS(cfg)
	if err != nil {
		return nil, err
	}
	reqOS, err := resolve.ParseOS(osName)
	if err != nil {
		return nil, err
	}
	policy, err := version.ParsePolicy(cmp.Or(rv.policy, cfg.Policy))
	if err != nil {
		return nil, err
	}

	r, err := resolve.New(cat.Slices(), resolve.Options{
		OS:               reqOS,
		Policy:           policy,
		OSBaseDependency: cfg.OSBaseDependency,
		Logger:           slog.Default(),
	})
	if err != nil {
		return nil, err
	}
	for _, d := range r.Diagnostics() {
		slog.Debug(d.Message, "code", d.Code, "slice", d.Slice)
	}
	return r, nil
}

// lookupAll finds every requested slice. Requests that are not found are
// reported with suggestions; the returned error joins all failures.
func (app *App) lookupAll(r *resolve.Resolver, requests []string) ([]resolve.NodeID, error) {
	ids := make([]resolve.NodeID, 0, len(requests))
	var errs []error
	for _, req := range requests {
		id, err := r.Lookup(req)
		if err != nil {
			if errors.Is(err, resolve.ErrSliceNotFound) {
				app.printNotFound(r, req)
			}
			errs = append(errs, err)
			continue
		}
		ids = append(ids, id)
	}
	return ids, errors.Join(errs...)
}

// printNotFound reports a missing request with fuzzy suggestions.
func (app *App) printNotFound(r *resolve.Resolver, request string) {
	msg := ErrorStyle.Render(request) + " not found for " + r.Options().OS.String()
	if s := suggest(r, request); len(s) > 0 {
		msg += SubtitleStyle.Render("; did you mean ") + joinSuggestions(s) + SubtitleStyle.Render("?")
	}
	fmt.Fprintln(app.stderr, msg)
}
