// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/slicebuild/sb/internal/catalog"
	"github.com/slicebuild/sb/internal/testutil"
)

func TestMake_ShellToStdout(t *testing.T) {
	t.Parallel()

	res := runCLI(t, testConfig(t), nil, "make", "jekyll", "-o", "-")
	if res.err != nil {
		t.Fatalf("make error: %v\nstderr: %s", res.err, res.stderr)
	}

	want := strings.Join([]string{
		"apt-get update -q -y",
		"apt-get install -q -y wget",
		"wget https://cache.ruby-lang.org/ruby-2.2.3.tar.gz",
		"make install",
		"gem install jekyll -v 3.0.0",
	}, "\n") + "\n"
	if res.stdout != want {
		t.Errorf("stdout =\n%s\nwant\n%s", res.stdout, want)
	}
}

func TestMake_DockerToStdout(t *testing.T) {
	t.Parallel()

	res := runCLI(t, testConfig(t), nil, "make", "ruby", "-f", "d", "-o", "-")
	if res.err != nil {
		t.Fatalf("make error: %v\nstderr: %s", res.err, res.stderr)
	}
	if !strings.HasPrefix(res.stdout, "FROM debian:jessie\n") {
		t.Errorf("Dockerfile should start with the base image, got:\n%s", res.stdout)
	}
	if strings.Count(res.stdout, "FROM ") != 1 {
		t.Errorf("Dockerfile should have exactly one FROM, got:\n%s", res.stdout)
	}
	if !strings.Contains(res.stdout, "RUN apt-get install -q -y wget") {
		t.Errorf("Dockerfile missing wget RUN, got:\n%s", res.stdout)
	}
	if strings.Contains(res.stdout, "jekyll") {
		t.Errorf("Dockerfile for ruby should not contain jekyll, got:\n%s", res.stdout)
	}
}

func TestMake_WritesToOutputDir(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	res := runCLI(t, cfg, nil, "make")
	if res.err != nil {
		t.Fatalf("make error: %v\nstderr: %s", res.err, res.stderr)
	}

	path := filepath.Join(cfg.OutputDir, "jekyll-3.0.0")
	got := testutil.MustReadFile(t, path)
	if !strings.HasSuffix(got, "gem install jekyll -v 3.0.0\n") {
		t.Errorf("output file content:\n%s", got)
	}
	if !strings.Contains(res.stdout, path) {
		t.Errorf("stdout should name the written file, got %q", res.stdout)
	}
}

func TestMake_ExplicitOutFile(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "nested", "Dockerfile")
	res := runCLI(t, testConfig(t), nil, "make", "wget", "-f", "d", "-o", out)
	if res.err != nil {
		t.Fatalf("make error: %v\nstderr: %s", res.err, res.stderr)
	}
	if got := testutil.MustReadFile(t, out); !strings.HasPrefix(got, "FROM debian:jessie") {
		t.Errorf("Dockerfile content:\n%s", got)
	}
}

func TestMake_MissingDependencyWritesNothing(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.SlicesRoot = testutil.WriteCatalog(t, t.TempDir(), map[string]string{
		"slices-1.0.0/lang/ruby-2.2":  testutil.Def([]string{"debian-8"}, []string{"wget", "openssl"}, "make install"),
		"slices-1.0.0/web/jekyll-3.0": testutil.Def([]string{"debian-8"}, []string{"ruby"}, "gem install jekyll"),
	})

	res := runCLI(t, cfg, nil, "make", "jekyll")

	var exitErr *ExitError
	if !errors.As(res.err, &exitErr) || exitErr.Code != 1 {
		t.Fatalf("expected ExitError code 1, got %v", res.err)
	}
	for _, want := range []string{
		"ruby depends on wget, but it is missing",
		"ruby depends on openssl, but it is missing",
		"Unresolved dependencies for debian: openssl, wget",
	} {
		if !strings.Contains(res.stderr, want) {
			t.Errorf("stderr missing %q:\n%s", want, res.stderr)
		}
	}
	entries, err := os.ReadDir(cfg.OutputDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("nothing should be written, found %d entries", len(entries))
	}
}

func TestMake_NotFoundSuggests(t *testing.T) {
	t.Parallel()

	res := runCLI(t, testConfig(t), nil, "make", "jekyl", "-o", "-")

	var exitErr *ExitError
	if !errors.As(res.err, &exitErr) || exitErr.Code != 1 {
		t.Fatalf("expected ExitError code 1, got %v", res.err)
	}
	if !strings.Contains(res.stderr, "not found") || !strings.Contains(res.stderr, "jekyll") {
		t.Errorf("stderr should suggest jekyll:\n%s", res.stderr)
	}
	if res.stdout != "" {
		t.Errorf("stdout should be empty, got %q", res.stdout)
	}
}

func TestMake_Policy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{name: "exact match", args: []string{"ruby-2.2", "--policy", "exact"}},
		{name: "exact miss", args: []string{"ruby-2.3", "--policy", "exact"}, wantErr: true},
		{name: "greater accepts older request", args: []string{"ruby-2.0", "--policy", "exact-or-greater"}},
		{name: "lesser accepts newer request", args: []string{"ruby-3.0", "--policy", "exact-or-lesser"}},
		{name: "other OS", args: []string{"ruby", "--os", "alpine"}, wantErr: true},
		{name: "bad policy", args: []string{"ruby", "--policy", "sometimes"}, wantErr: true},
		{name: "bad format", args: []string{"ruby", "-f", "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			args := append([]string{"make", "-o", "-"}, tt.args...)
			res := runCLI(t, testConfig(t), nil, args...)
			if (res.err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v\nstderr: %s", res.err, tt.wantErr, res.stderr)
			}
		})
	}
}

func TestWatchIgnore(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cfg := testConfig(t)
	cfg.SlicesRoot = root

	cfg.OutputDir = filepath.Join(t.TempDir(), "make")
	if got := watchIgnore(cfg, ""); !slices.Equal(got, catalog.DefaultIgnore) {
		t.Errorf("output outside root: got %v", got)
	}

	cfg.OutputDir = filepath.Join(root, "out")
	got := watchIgnore(cfg, "")
	if !slices.Contains(got, "out") || !slices.Contains(got, "out/**") {
		t.Errorf("output inside root should be ignored, got %v", got)
	}

	got = watchIgnore(cfg, filepath.Join(root, "build", "Dockerfile"))
	if !slices.Contains(got, "build/**") {
		t.Errorf("--out inside root should be ignored, got %v", got)
	}
}
