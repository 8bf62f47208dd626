// SPDX-License-Identifier: MPL-2.0

// Package watch re-runs a callback when files under a slices root change.
//
// Events inside the debounce window are coalesced, so an editor that writes
// a temp file and renames it over a slice triggers a single rebuild.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 300 * time.Millisecond

// editorNoise is always ignored on top of Options.Ignore.
var editorNoise = []string{
	"**/*~",
	"**/*.swp",
	"**/*.swo",
	"**/4913",
	"**/.DS_Store",
}

// ErrAlreadyRunning is returned by a second call to Run.
var ErrAlreadyRunning = errors.New("watch: Run called more than once")

type (
	// Options configures a Watcher.
	Options struct {
		// Root is the directory to watch recursively.
		Root string
		// Ignore holds doublestar patterns, relative to Root, for paths that
		// never trigger a rebuild. Matching directories are not descended.
		Ignore []string
		// Debounce is the quiet period before OnChange fires. Zero uses the default.
		Debounce time.Duration
		// Logger receives watch events. Nil uses slog.Default().
		Logger *slog.Logger
		// OnChange receives the sorted, deduplicated changed paths relative to Root.
		OnChange func(ctx context.Context, changed []string) error
	}

	// Watcher monitors a directory tree and fires a debounced callback.
	Watcher struct {
		opts     Options
		fsw      *fsnotify.Watcher
		ignore   []string
		logger   *slog.Logger
		debounce time.Duration
		root     string
		started  atomic.Bool
	}
)

// New validates opts and registers every non-ignored directory under Root.
func New(opts Options) (*Watcher, error) {
	if opts.Root == "" {
		return nil, errors.New("watch: root directory is required")
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve root: %w", err)
	}

	for _, pat := range opts.Ignore {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("watch: invalid ignore pattern %q", pat)
		}
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		opts:     opts,
		fsw:      fsw,
		ignore:   slices.Concat(editorNoise, opts.Ignore),
		logger:   logger,
		debounce: debounce,
		root:     root,
	}

	if err := w.addTree(root); err != nil {
		_ = fsw.Close() // Best-effort cleanup
		return nil, err
	}
	return w, nil
}

// Run processes events until ctx is canceled. It returns nil on
// cancellation and an error when the underlying watcher breaks. OnChange
// never runs concurrently with itself; changes arriving during a run are
// delivered on the next one.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			w.logger.Debug("rebuild still running, deferring changes")
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		w.logger.Info("slices changed", "count", len(changed))
		if w.opts.OnChange != nil {
			if err := w.opts.OnChange(ctx, changed); err != nil {
				w.logger.Error("rebuild failed", "err", err)
			}
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("close fsnotify", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed unexpectedly")
			}
			if evt.Has(fsnotify.Chmod) && !evt.Has(fsnotify.Write) {
				continue
			}

			rel, err := filepath.Rel(w.root, evt.Name)
			if err != nil || w.ignored(rel) {
				continue
			}

			if evt.Has(fsnotify.Create) {
				if info, statErr := os.Stat(evt.Name); statErr == nil && info.IsDir() {
					if addErr := w.addTree(evt.Name); addErr != nil {
						w.logger.Warn("watch new directory", "path", evt.Name, "err", addErr)
					}
				}
			}

			w.logger.Debug("fs event", "op", evt.Op.String(), "path", rel)

			mu.Lock()
			pending[filepath.ToSlash(rel)] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed unexpectedly")
			}
			if isFatal(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "err", err)
		}
	}
}

// addTree registers dir and every non-ignored directory below it.
func (w *Watcher) addTree(dir string) error {
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			w.logger.Warn("skipping inaccessible path", "path", path, "err", walkErr)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(w.root, path)
		if relErr != nil {
			return nil //nolint:nilerr // unreachable below root
		}
		if w.ignored(rel) {
			return filepath.SkipDir
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, addErr)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch: walk %s: %w", dir, err)
	}
	return nil
}

// ignored matches rel against the ignore patterns. The root itself is never
// ignored.
func (w *Watcher) ignored(rel string) bool {
	if rel == "." {
		return false
	}
	normalized := filepath.ToSlash(rel)
	for _, pat := range w.ignore {
		if ok, _ := doublestar.Match(pat, normalized); ok {
			return true
		}
	}
	return false
}
