// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/slicebuild/sb/internal/config"
	"github.com/slicebuild/sb/internal/testutil"
)

type (
	// syncBuffer is a bytes.Buffer safe for the concurrent writes of the
	// slog default handler and command output.
	syncBuffer struct {
		mu  sync.Mutex
		buf bytes.Buffer
	}

	// failingConfig is a ConfigProvider whose Load always fails.
	failingConfig struct {
		err error
	}

	fakeDocker struct {
		mu         sync.Mutex
		dockerfile string
		tag        string
		err        error
	}

	cliResult struct {
		stdout string
		stderr string
		err    error
	}
)

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (f failingConfig) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	return nil, f.err
}

func (d *fakeDocker) Build(_ context.Context, dir, tag string, _, _ io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, err := os.ReadFile(filepath.Join(dir, "Dockerfile"))
	if err != nil {
		return err
	}
	d.dockerfile = string(b)
	d.tag = tag
	return d.err
}

// testConfig returns a config whose slices root holds the jekyll catalog
// and whose output directory is a fresh temp dir.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.SlicesRoot = testutil.NewJekyllCatalog(t)
	cfg.OutputDir = t.TempDir()
	cfg.DefaultOS = "debian"
	cfg.DefaultLayer = "jekyll"
	return cfg
}

// runCLI executes the command tree with args against cfg.
func runCLI(t *testing.T, cfg *config.Config, docker DockerBuilder, args ...string) cliResult {
	t.Helper()
	stdout, stderr := &syncBuffer{}, &syncBuffer{}
	app := NewApp(Dependencies{
		Config: config.Static(cfg),
		Docker: docker,
		Stdout: stdout,
		Stderr: stderr,
	})
	root := NewRootCommand(app)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}
