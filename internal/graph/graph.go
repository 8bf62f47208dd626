// SPDX-License-Identifier: MPL-2.0

// Package graph renders resolved dependency trees as text, JSON, DOT, TOML
// or YAML.
package graph

import (
	"github.com/slicebuild/sb/internal/resolve"
)

// Tree is one slice and its dependencies. A slice already expanded earlier
// in the same rendering is marked Repeated and not expanded again.
type Tree struct {
	Name         string   `json:"name" yaml:"name" toml:"name"`
	Version      string   `json:"version" yaml:"version" toml:"version"`
	Path         string   `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`
	Missing      []string `json:"missing,omitempty" yaml:"missing,omitempty" toml:"missing,omitempty"`
	Repeated     bool     `json:"repeated,omitempty" yaml:"repeated,omitempty" toml:"repeated,omitempty"`
	Dependencies []Tree   `json:"dependencies,omitempty" yaml:"dependencies,omitempty" toml:"dependencies,omitempty"`
}

// Build returns the trees rooted at roots. Expansion is shared across roots,
// matching emission order.
func Build(r *resolve.Resolver, roots []resolve.NodeID) []Tree {
	expanded := make(map[resolve.NodeID]bool)
	trees := make([]Tree, 0, len(roots))
	for _, id := range roots {
		trees = append(trees, build(r, id, expanded))
	}
	return trees
}

func build(r *resolve.Resolver, id resolve.NodeID, expanded map[resolve.NodeID]bool) Tree {
	s := r.Slice(id)
	t := Tree{Name: s.Name(), Version: s.Version().String(), Path: s.Path()}
	if expanded[id] {
		t.Repeated = true
		return t
	}
	expanded[id] = true

	res := r.Resolution(id)
	switch res := res.(type) {
	case resolve.Complete:
	case resolve.Missing:
		t.Missing = append([]string(nil), res.Names...)
	}
	for _, dep := range res.Found() {
		t.Dependencies = append(t.Dependencies, build(r, dep, expanded))
	}
	return t
}
