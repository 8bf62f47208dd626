// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"path/filepath"
	"strings"
	"testing"
)

// Def renders a slice definition file with OS, optional DEP and RUN sections.
func Def(oses, deps []string, run ...string) string {
	var sb strings.Builder
	sb.WriteString("OS\n")
	for _, o := range oses {
		sb.WriteString(o + "\n")
	}
	if len(deps) > 0 {
		sb.WriteString("\nDEP\n")
		for _, d := range deps {
			sb.WriteString(d + "\n")
		}
	}
	if len(run) > 0 {
		sb.WriteString("\nRUN\n")
		for _, r := range run {
			sb.WriteString(r + "\n")
		}
	}
	return sb.String()
}

// WriteCatalog writes files, keyed by slash-separated path relative to root,
// and returns root.
func WriteCatalog(t testing.TB, root string, files map[string]string) string {
	t.Helper()
	for rel, content := range files {
		MustWriteFile(t, filepath.Join(root, filepath.FromSlash(rel)), content)
	}
	return root
}

// JekyllFiles is a small debian catalog: debian (base image), wget, ruby
// (needs wget) and jekyll (needs ruby), plus a readme that must be ignored.
func JekyllFiles() map[string]string {
	debian := []string{"debian-8"}
	return map[string]string{
		"slices-1.0.0/README.md":     "# Slices\n",
		"slices-1.0.0/os/debian-8":   "OS\ndebian-8\n\nFROM\ndebian:jessie\n\nRUN\napt-get update -q -y\n",
		"slices-1.0.0/tools/wget":    Def(debian, nil, "apt-get install -q -y wget"),
		"slices-1.0.0/lang/ruby-2.2": Def(debian, []string{"wget"}, "wget https://cache.ruby-lang.org/ruby-2.2.3.tar.gz", "make install"),
		"slices-1.0.0/web/jekyll-3.0": Def(debian, []string{"ruby"}, "gem install jekyll -v 3.0.0"),
	}
}

// NewJekyllCatalog writes JekyllFiles into a temporary directory and returns
// the slices root.
func NewJekyllCatalog(t testing.TB) string {
	t.Helper()
	return WriteCatalog(t, t.TempDir(), JekyllFiles())
}
