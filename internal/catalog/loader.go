// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/slicebuild/sb/pkg/slice"
	"github.com/slicebuild/sb/pkg/version"
)

var (
	// ErrCatalogRootNotFound is returned when the slices root does not exist
	// or is not a directory.
	ErrCatalogRootNotFound = errors.New("slices root not found")
	// ErrEmptyCatalog is returned when the slices root has no bucket directories.
	ErrEmptyCatalog = errors.New("slices root contains no buckets")
)

// DefaultIgnore are the doublestar patterns, relative to a bucket, of entries
// that are never slice definitions.
var DefaultIgnore = []string{
	"**/*.md",
	"**/*.txt",
	"**/.*",
}

type (
	// Loader reads a Catalog from a slices root.
	Loader struct {
		root   string
		ignore []string
		logger *slog.Logger
	}

	// Option configures a Loader.
	Option func(*Loader)
)

// WithIgnore adds doublestar patterns for files and directories to skip.
func WithIgnore(patterns ...string) Option {
	return func(l *Loader) {
		l.ignore = append(l.ignore, patterns...)
	}
}

// WithLogger sets the logger used for debug output. The default is
// slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader returns a Loader for root.
func NewLoader(root string, opts ...Option) *Loader {
	l := &Loader{
		root:   root,
		ignore: append([]string(nil), DefaultIgnore...),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the whole catalog. It fails with ErrCatalogRootNotFound,
// ErrEmptyCatalog, version.ErrInvalidVersion or an I/O error; no partial
// catalog is returned on failure.
func (l *Loader) Load() (*Catalog, error) {
	buckets, err := l.listBuckets()
	if err != nil {
		return nil, err
	}

	kept, dropped := SelectBuckets(buckets)
	c := newCatalog(l.root, kept)
	for _, b := range dropped {
		c.addDiagnostic(Diagnostic{
			Severity: SeverityInfo,
			Code:     CodeBucketSkipped,
			Message:  fmt.Sprintf("bucket %s skipped: major version %d is not the highest", b.Name, b.Version.Major),
			Path:     b.Path,
		})
	}

	for _, b := range kept {
		l.logger.Debug("loading bucket", "bucket", b.Name, "version", b.Version.String())
		bucketSlices, err := l.loadBucket(c, b)
		if err != nil {
			return nil, err
		}
		c.fold(bucketSlices)
	}

	l.logger.Debug("catalog loaded", "root", l.root, "buckets", len(kept), "slices", len(c.slices))
	return c, nil
}

func (l *Loader) listBuckets() ([]Bucket, error) {
	info, err := os.Stat(l.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrCatalogRootNotFound, l.root)
		}
		return nil, fmt.Errorf("stat slices root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrCatalogRootNotFound, l.root)
	}

	entries, err := os.ReadDir(l.root)
	if err != nil {
		return nil, fmt.Errorf("read slices root: %w", err)
	}

	var buckets []Bucket
	for _, e := range entries {
		if !e.IsDir() || l.ignored(e.Name()) {
			continue
		}
		v, err := ParseBucketVersion(e.Name())
		if err != nil {
			return nil, fmt.Errorf("bucket %s: %w", e.Name(), err)
		}
		buckets = append(buckets, Bucket{
			Name:    strings.ToLower(e.Name()),
			Version: v,
			Path:    filepath.Join(l.root, e.Name()),
		})
	}

	if len(buckets) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyCatalog, l.root)
	}
	return buckets, nil
}

// loadBucket walks every file below the bucket in lexical order. Within one
// bucket the highest version of a name wins.
func (l *Loader) loadBucket(c *Catalog, b Bucket) ([]*slice.Slice, error) {
	var out []*slice.Slice
	index := make(map[string]int)

	err := filepath.WalkDir(b.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(b.Path, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}
		if l.ignored(filepath.ToSlash(rel)) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		s, parsed, err := readSlice(path)
		if err != nil {
			return err
		}
		if !parsed {
			l.logger.Debug("skipping non-slice file", "path", path)
			c.addDiagnostic(Diagnostic{
				Severity: SeverityWarning,
				Code:     CodeNotASlice,
				Message:  "file does not start with a section keyword",
				Path:     path,
			})
			return nil
		}

		if i, dup := index[s.Name()]; dup {
			prev := out[i]
			if s.Version().Less(prev.Version()) {
				c.addReplaced(s, prev)
				return nil
			}
			c.addReplaced(prev, s)
			out[i] = s
			return nil
		}
		index[s.Name()] = len(out)
		out = append(out, s)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load bucket %s: %w", b.Name, err)
	}
	return out, nil
}

func (l *Loader) ignored(rel string) bool {
	for _, pattern := range l.ignore {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// readSlice loads one definition file. parsed is false when the content is
// not a slice.
func readSlice(path string) (s *slice.Slice, parsed bool, err error) {
	name, v, err := SliceNameAndVersion(filepath.Base(path))
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", path, err)
	}
	if name == "" {
		return nil, false, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	sections, err := slice.ReadSections(f)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", path, err)
	}
	if len(sections) == 0 {
		return nil, false, nil
	}
	return slice.New(name, v, path, sections), true, nil
}

// SliceNameAndVersion derives the slice name and version from a definition
// file name. When the name contains '_', only the part after the last '_' is
// used, so debian-8.2_jekyll-3.0 names jekyll 3.0.0.
func SliceNameAndVersion(fileName string) (string, version.Version, error) {
	if i := strings.LastIndexByte(fileName, '_'); i >= 0 {
		fileName = fileName[i+1:]
	}
	name, v, err := version.ExtractNameAndVersion(strings.ToLower(fileName))
	if err != nil {
		return "", version.Version{}, err
	}
	return name, v, nil
}
