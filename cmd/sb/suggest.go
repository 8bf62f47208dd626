// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"slices"
	"strings"

	"github.com/slicebuild/sb/internal/resolve"
	"github.com/slicebuild/sb/pkg/version"

	"github.com/sahilm/fuzzy"
)

const maxSuggestions = 3

// suggest returns up to three resolved slice names that fuzzy-match the name
// part of request, best match first.
func suggest(r *resolve.Resolver, request string) []string {
	name := strings.ToLower(strings.TrimSpace(request))
	if n, _, err := version.ExtractNameAndVersion(name); err == nil {
		name = n
	}
	if name == "" {
		return nil
	}

	var names []string
	for _, id := range r.IDs() {
		if n := r.Slice(id).Name(); !slices.Contains(names, n) {
			names = append(names, n)
		}
	}

	matches := fuzzy.Find(name, names)
	out := make([]string, 0, maxSuggestions)
	for _, m := range matches {
		if m.Str == name {
			continue
		}
		out = append(out, m.Str)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}

func joinSuggestions(names []string) string {
	styled := make([]string, len(names))
	for i, n := range names {
		styled[i] = SliceStyle.Render(n)
	}
	return strings.Join(styled, ", ")
}
