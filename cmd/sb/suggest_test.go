// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"slices"
	"testing"

	"github.com/slicebuild/sb/internal/resolve"
	"github.com/slicebuild/sb/pkg/slice"
	"github.com/slicebuild/sb/pkg/version"
)

func TestSuggest(t *testing.T) {
	t.Parallel()

	mk := func(name string) *slice.Slice {
		sections := slice.ParseSections([]string{"OS", "debian-8"})
		return slice.New(name, version.MustParse("1.0"), name, sections)
	}
	r, err := resolve.New(
		[]*slice.Slice{mk("jekyll"), mk("ruby"), mk("rubygems"), mk("nodejs"), mk("wget")},
		resolve.Options{OS: slice.OS{Name: "debian"}, Policy: version.ExactOrGreater},
	)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		request string
		want    []string
	}{
		{"jekyl", []string{"jekyll"}},
		{"rby-2.2", []string{"ruby", "rubygems"}},
		{"nde", []string{"nodejs"}},
		{"zzz", nil},
	}

	for _, tt := range tests {
		t.Run(tt.request, func(t *testing.T) {
			t.Parallel()
			got := suggest(r, tt.request)
			for _, w := range tt.want {
				if !slices.Contains(got, w) {
					t.Errorf("suggest(%q) = %v, want it to contain %q", tt.request, got, w)
				}
			}
			if tt.want == nil && len(got) != 0 {
				t.Errorf("suggest(%q) = %v, want none", tt.request, got)
			}
			if len(got) > maxSuggestions {
				t.Errorf("suggest(%q) returned %d names", tt.request, len(got))
			}
		})
	}
}
