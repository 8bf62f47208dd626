// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/slicebuild/sb/pkg/slice"
	"github.com/slicebuild/sb/pkg/version"
)

// ErrSliceNotFound is matched by every SliceNotFoundError.
var ErrSliceNotFound = errors.New("slice not found")

// SliceNotFoundError reports a requested slice absent from the resolver.
type SliceNotFoundError struct {
	Request string
	OS      slice.OS
}

func (e *SliceNotFoundError) Error() string {
	return fmt.Sprintf("%s: %s for %s", ErrSliceNotFound, e.Request, e.OS)
}

func (e *SliceNotFoundError) Unwrap() error {
	return ErrSliceNotFound
}

// Lookup finds a requested slice given as "name" or "name-version". A bare
// name takes the highest version; a versioned request uses the resolver's
// policy.
func (r *Resolver) Lookup(request string) (NodeID, error) {
	name, v, err := version.ExtractNameAndVersion(strings.ToLower(strings.TrimSpace(request)))
	if err != nil {
		return 0, err
	}
	match := anyVersion
	if !v.IsZero() {
		policy := r.opts.Policy
		match = func(candidate version.Version) bool { return policy.Matches(candidate, v) }
	}
	if id, ok := r.find(name, match); ok {
		return id, nil
	}
	return 0, &SliceNotFoundError{Request: request, OS: r.opts.OS}
}

// Len returns the number of resolved slices.
func (r *Resolver) Len() int {
	return len(r.nodes)
}

// IDs returns every node in resolution order, which places each dependency
// before the first slice that needed it.
func (r *Resolver) IDs() []NodeID {
	ids := make([]NodeID, len(r.nodes))
	for i := range r.nodes {
		ids[i] = NodeID(i)
	}
	return ids
}

// Slice returns the slice of node id.
func (r *Resolver) Slice(id NodeID) *slice.Slice {
	return r.nodes[id].slice
}

// Resolution returns the dependency outcome of node id.
func (r *Resolver) Resolution(id NodeID) Resolution {
	return r.nodes[id].resolution
}

// Options returns the options the resolver was built with.
func (r *Resolver) Options() Options {
	return r.opts
}

// Diagnostics returns the findings of the run: slices filtered out by OS,
// dependency cycles and dropped duplicates.
func (r *Resolver) Diagnostics() []Diagnostic {
	return slices.Clone(r.diagnostics)
}

// FindSlice returns the highest-version resolved slice named name whose
// version satisfies policy against v.
func (r *Resolver) FindSlice(name string, v version.Version, policy version.Policy) (NodeID, bool) {
	name = strings.ToLower(name)
	return r.find(name, func(candidate version.Version) bool {
		return policy.Matches(candidate, v)
	})
}

// FindSimilarSlices returns every resolved slice whose name contains substr,
// in catalog order.
func (r *Resolver) FindSimilarSlices(substr string) []NodeID {
	substr = strings.ToLower(substr)
	var ids []NodeID
	for i, n := range r.nodes {
		if strings.Contains(n.slice.Name(), substr) {
			ids = append(ids, NodeID(i))
		}
	}
	slices.SortFunc(ids, func(a, b NodeID) int {
		return r.nodes[a].order - r.nodes[b].order
	})
	return ids
}

// UnresolvedDependencies returns every missing dependency name in the whole
// resolver, without duplicates, sorted.
func (r *Resolver) UnresolvedDependencies() []string {
	var names []string
	for _, n := range r.nodes {
		if m, ok := n.resolution.(Missing); ok {
			names = append(names, m.Names...)
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// MissingLinks walks the dependency tree below id, each node once, and
// returns every missing edge in post-order.
func (r *Resolver) MissingLinks(id NodeID) []MissingLink {
	var links []MissingLink
	visited := make(map[NodeID]bool)

	var walk func(NodeID)
	walk = func(id NodeID) {
		if visited[id] {
			return
		}
		visited[id] = true
		res := r.nodes[id].resolution
		for _, dep := range res.Found() {
			walk(dep)
		}
		switch res := res.(type) {
		case Complete:
		case Missing:
			for _, name := range res.Names {
				links = append(links, MissingLink{Slice: r.nodes[id].slice.Name(), Dependency: name})
			}
		}
	}
	walk(id)
	return links
}

// HasMissing reports whether id or anything it depends on has missing
// dependencies.
func (r *Resolver) HasMissing(id NodeID) bool {
	return len(r.MissingLinks(id)) > 0
}
