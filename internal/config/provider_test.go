// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	p := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestProvider_LoadDefaultsWhenNoFile(t *testing.T) {
	t.Parallel()

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	want := DefaultConfig()
	if cfg.SlicesRoot != want.SlicesRoot {
		t.Errorf("SlicesRoot = %q, want %q", cfg.SlicesRoot, want.SlicesRoot)
	}
	if cfg.Format != FormatShell {
		t.Errorf("Format = %q, want %q", cfg.Format, FormatShell)
	}
	if cfg.Policy != "exact-or-greater" {
		t.Errorf("Policy = %q, want exact-or-greater", cfg.Policy)
	}
	if !cfg.OSBaseDependency {
		t.Error("OSBaseDependency should default to true")
	}
	if cfg.Fetch.Repo != DefaultRepo {
		t.Errorf("Fetch.Repo = %q, want %q", cfg.Fetch.Repo, DefaultRepo)
	}
	if cfg.Source != "" {
		t.Errorf("Source = %q, want empty", cfg.Source)
	}
}

func TestProvider_LoadMergesFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, `
slices_root: "/srv/slices"
default_os: "ubuntu-16.04"
format: "d"
policy: "exact"
os_base_dependency: false
fetch: archive_url: "https://example.com/slices.zip"
`)

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Source != path {
		t.Errorf("Source = %q, want %q", cfg.Source, path)
	}
	if cfg.SlicesRoot != "/srv/slices" {
		t.Errorf("SlicesRoot = %q", cfg.SlicesRoot)
	}
	if cfg.DefaultOS != "ubuntu-16.04" {
		t.Errorf("DefaultOS = %q", cfg.DefaultOS)
	}
	if cfg.Format != FormatDocker {
		t.Errorf("Format = %q", cfg.Format)
	}
	if cfg.Policy != "exact" {
		t.Errorf("Policy = %q", cfg.Policy)
	}
	if cfg.OSBaseDependency {
		t.Error("OSBaseDependency should be false")
	}
	if cfg.Fetch.ArchiveURL != "https://example.com/slices.zip" {
		t.Errorf("Fetch.ArchiveURL = %q", cfg.Fetch.ArchiveURL)
	}
	// Unset fields keep their defaults.
	if cfg.DefaultLayer != "jekyll" {
		t.Errorf("DefaultLayer = %q, want jekyll", cfg.DefaultLayer)
	}
	if cfg.Fetch.Repo != DefaultRepo {
		t.Errorf("Fetch.Repo = %q, want %q", cfg.Fetch.Repo, DefaultRepo)
	}
}

func TestProvider_LoadRejectsSchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown field", `colour: "red"`, "colour"},
		{"bad format", `format: "xml"`, "format"},
		{"bad policy", `policy: "newest"`, "policy"},
		{"wrong type", `os_base_dependency: "yes"`, "os_base_dependency"},
		{"syntax error", `slices_root: "/x`, "config.cue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			writeConfig(t, dir, tt.content)

			_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
			if err == nil {
				t.Fatal("Load() should fail")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestProvider_LoadMissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := NewProvider().Load(context.Background(), LoadOptions{
		ConfigFilePath: filepath.Join(t.TempDir(), "nope.cue"),
	})
	if !errors.Is(err, ErrConfigFileNotFound) {
		t.Fatalf("error should wrap ErrConfigFileNotFound, got: %v", err)
	}
}

func TestProvider_LoadCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewProvider().Load(ctx, LoadOptions{ConfigDirPath: t.TempDir()})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error should wrap context.Canceled, got: %v", err)
	}
}

func TestStatic(t *testing.T) {
	t.Parallel()

	base := DefaultConfig()
	base.DefaultLayer = "nginx"
	p := Static(base)
	base.DefaultLayer = "changed"

	first, err := p.Load(context.Background(), LoadOptions{ConfigFilePath: "/ignored.cue"})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if first.DefaultLayer != "nginx" {
		t.Errorf("DefaultLayer = %q, want the value at construction", first.DefaultLayer)
	}

	first.SlicesRoot = "/mutated"
	second, err := p.Load(context.Background(), LoadOptions{})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if second.SlicesRoot == "/mutated" {
		t.Error("Load() must return independent copies")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Load(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load(canceled) = %v, want context.Canceled", err)
	}
}
