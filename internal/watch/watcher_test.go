// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"
)

// runWatcher starts w and returns a stop function that cancels it and
// returns Run's error.
func runWatcher(t *testing.T, w *Watcher) func() error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	return func() error {
		cancel()
		return <-errCh
	}
}

func TestWatcher_Debounce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bucket := filepath.Join(dir, "slices-1.0.0")
	if err := os.MkdirAll(bucket, 0o755); err != nil {
		t.Fatal(err)
	}

	var (
		mu        sync.Mutex
		calls     int
		collected []string
	)
	done := make(chan struct{})

	w, err := New(Options{
		Root:     dir,
		Debounce: 100 * time.Millisecond,
		OnChange: func(_ context.Context, changed []string) error {
			mu.Lock()
			defer mu.Unlock()
			calls++
			collected = append(collected, changed...)
			if calls == 1 {
				close(done)
			}
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	stop := runWatcher(t, w)

	for _, name := range []string{"debian-8", "wget", "ruby-2.2"} {
		if err := os.WriteFile(filepath.Join(bucket, name), []byte("OS\ndebian\n"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callback")
	}
	time.Sleep(200 * time.Millisecond)

	if err := stop(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("expected 1 debounced callback, got %d", calls)
	}
	for _, want := range []string{"slices-1.0.0/debian-8", "slices-1.0.0/wget", "slices-1.0.0/ruby-2.2"} {
		if !slices.Contains(collected, want) {
			t.Errorf("expected %q in changed paths, got %v", want, collected)
		}
	}
}

func TestWatcher_IgnoresHiddenAndDocs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}

	fired := make(chan []string, 10)
	w, err := New(Options{
		Root:     dir,
		Ignore:   []string{"**/.*", "**/*.md"},
		Debounce: 50 * time.Millisecond,
		OnChange: func(_ context.Context, changed []string) error {
			fired <- changed
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	stop := runWatcher(t, w)

	for _, p := range []string{".git/HEAD", "README.md", "notes.swp"} {
		if err := os.WriteFile(filepath.Join(dir, p), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}

	select {
	case changed := <-fired:
		t.Errorf("callback fired for ignored paths: %v", changed)
	case <-time.After(400 * time.Millisecond):
	}

	if err := stop(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
}

func TestWatcher_NewDirectoryIsWatched(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fired := make(chan []string, 10)
	w, err := New(Options{
		Root:     dir,
		Debounce: 50 * time.Millisecond,
		OnChange: func(_ context.Context, changed []string) error {
			fired <- changed
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	stop := runWatcher(t, w)
	defer func() { _ = stop() }()

	bucket := filepath.Join(dir, "slices-2.0.0")
	if err := os.Mkdir(bucket, 0o755); err != nil {
		t.Fatal(err)
	}
	// Let the create event register the new directory before writing into it.
	time.Sleep(150 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(bucket, "nginx"), []byte("OS\ndebian\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case changed := <-fired:
			if slices.Contains(changed, "slices-2.0.0/nginx") {
				return
			}
		case <-deadline:
			t.Fatal("write inside a new directory was not observed")
		}
	}
}

func TestWatcher_InvalidPattern(t *testing.T) {
	t.Parallel()

	_, err := New(Options{Root: t.TempDir(), Ignore: []string{"[unclosed"}})
	if err == nil {
		t.Fatal("New() should reject an invalid pattern")
	}
}

func TestWatcher_RequiresRoot(t *testing.T) {
	t.Parallel()

	if _, err := New(Options{}); err == nil {
		t.Fatal("New() should require a root")
	}
}

func TestWatcher_DoubleRun(t *testing.T) {
	t.Parallel()

	w, err := New(Options{Root: t.TempDir()})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	stop := runWatcher(t, w)

	// Give the first Run a moment to claim the watcher.
	time.Sleep(50 * time.Millisecond)
	if err := w.Run(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() = %v, want ErrAlreadyRunning", err)
	}

	if err := stop(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
}
