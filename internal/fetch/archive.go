// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// FetchArchive downloads the zip archive at url and extracts it under the
// slices root. Each top-level directory of the archive becomes a bucket; the
// archive is skipped when one of them already exists, unless force is set.
func (f *Fetcher) FetchArchive(ctx context.Context, url string, force bool) (res Result, err error) {
	tmpPath, err := f.download(ctx, url)
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = os.Remove(tmpPath) }() // Best-effort cleanup of temp file

	zr, err := zip.OpenReader(tmpPath)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %w", ErrInvalidArchive, url, err)
	}
	defer func() {
		if closeErr := zr.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	tops := topLevelDirs(zr.File)
	if len(tops) == 0 {
		return Result{}, fmt.Errorf("%w: %s contains no directories", ErrInvalidArchive, url)
	}

	res = Result{Path: filepath.Join(f.root, tops[0]), Source: url}
	for _, top := range tops {
		ok, prepErr := f.prepareDest(filepath.Join(f.root, top), force)
		if prepErr != nil {
			return Result{}, prepErr
		}
		if !ok {
			f.logger.Info("bucket already present", "path", filepath.Join(f.root, top), "url", url)
			res.Skipped = true
			return res, nil
		}
	}

	f.logger.Info("extracting archive", "url", url, "root", f.root, "buckets", len(tops))
	if err := extractAll(zr.File, f.root); err != nil {
		for _, top := range tops {
			_ = os.RemoveAll(filepath.Join(f.root, top)) // Best-effort cleanup
		}
		return Result{}, err
	}

	return res, nil
}

// download saves url to a temporary file and returns its path.
func (f *Fetcher) download(ctx context.Context, url string) (tmpPath string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download %s: unexpected status %s", url, resp.Status)
	}

	tmpFile, err := os.CreateTemp("", "sb-slices-*.zip")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath = tmpFile.Name()
	defer func() {
		if closeErr := tmpFile.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if err != nil {
			_ = os.Remove(tmpPath) // Best-effort cleanup
		}
	}()

	if _, err = io.Copy(tmpFile, resp.Body); err != nil {
		return "", fmt.Errorf("failed to save downloaded file: %w", err)
	}

	return tmpPath, nil
}

// topLevelDirs returns the sorted first path segments of entries that live
// inside a directory.
func topLevelDirs(files []*zip.File) []string {
	var tops []string
	for _, file := range files {
		top, _, found := strings.Cut(file.Name, "/")
		if !found || top == "" || top == "." || top == ".." {
			continue
		}
		if !slices.Contains(tops, top) {
			tops = append(tops, top)
		}
	}
	slices.Sort(tops)
	return tops
}

func extractAll(files []*zip.File, root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve slices root: %w", err)
	}

	for _, file := range files {
		destPath := filepath.Join(absRoot, filepath.FromSlash(file.Name))

		relPath, relErr := filepath.Rel(absRoot, destPath)
		if relErr != nil || relPath == "." || relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
			return fmt.Errorf("%w: entry %q escapes the slices root", ErrInvalidArchive, file.Name)
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(destPath, 0o755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
			return fmt.Errorf("failed to create parent directory: %w", err)
		}
		if err := extractFile(file, destPath); err != nil {
			return fmt.Errorf("failed to extract %s: %w", file.Name, err)
		}
	}
	return nil
}

func extractFile(file *zip.File, destPath string) (err error) {
	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	destFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := destFile.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	//nolint:gosec // G110: archives come from a user-configured source
	_, err = io.Copy(destFile, rc)
	return err
}
