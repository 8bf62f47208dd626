// SPDX-License-Identifier: MPL-2.0

package emit

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/slicebuild/sb/internal/resolve"
	"github.com/slicebuild/sb/pkg/slice"
)

// ErrMissingDependencies is matched by every MissingDependenciesError.
var ErrMissingDependencies = errors.New("missing dependencies")

type (
	// Fragment is the content of one slice passed to a Formatter.
	Fragment struct {
		Name string
		From []string
		Run  []string
	}

	// Formatter renders one fragment. first is true for the first slice of a
	// run.
	Formatter interface {
		Format(f Fragment, first bool) string
	}

	// MissingDependenciesError lists every missing edge below the requested
	// slices.
	MissingDependenciesError struct {
		Links []resolve.MissingLink
	}
)

func (e *MissingDependenciesError) Error() string {
	parts := make([]string, len(e.Links))
	for i, l := range e.Links {
		parts[i] = fmt.Sprintf("%s depends on %s", l.Slice, l.Dependency)
	}
	return fmt.Sprintf("%s: %s", ErrMissingDependencies, strings.Join(parts, ", "))
}

func (e *MissingDependenciesError) Unwrap() error {
	return ErrMissingDependencies
}

// FragmentOf extracts the FROM and RUN items of s.
func FragmentOf(s *slice.Slice) Fragment {
	return Fragment{
		Name: s.Name(),
		From: s.SectionItems(slice.KindFROM),
		Run:  s.SectionItems(slice.KindRUN),
	}
}

// Order returns the slices reachable from roots in post-order: every
// dependency before its dependent. A slice reached along several paths
// appears once, at its first visit.
func Order(r *resolve.Resolver, roots []resolve.NodeID) []resolve.NodeID {
	var order []resolve.NodeID
	visited := make(map[string]bool)

	var visit func(resolve.NodeID)
	visit = func(id resolve.NodeID) {
		name := r.Slice(id).Name()
		if visited[name] {
			return
		}
		visited[name] = true
		for _, dep := range r.Resolution(id).Found() {
			visit(dep)
		}
		order = append(order, id)
	}

	for _, id := range roots {
		visit(id)
	}
	return order
}

// Emit renders roots and their dependencies with f. The first FROM section
// in run order is handed to f with the first fragment. Nothing is rendered if
// any reachable slice has missing dependencies; the error then lists them
// all.
func Emit(r *resolve.Resolver, roots []resolve.NodeID, f Formatter) (string, error) {
	var links []resolve.MissingLink
	for _, id := range roots {
		links = append(links, r.MissingLinks(id)...)
	}
	if len(links) > 0 {
		return "", &MissingDependenciesError{Links: dedupLinks(links)}
	}

	order := Order(r, roots)
	frags := make([]Fragment, len(order))
	for i, id := range order {
		frags[i] = FragmentOf(r.Slice(id))
	}
	hoistBase(frags)

	var sb strings.Builder
	for i, frag := range frags {
		sb.WriteString(f.Format(frag, i == 0))
	}
	return sb.String(), nil
}

// hoistBase moves the FROM items of the first fragment that has any onto
// the first fragment, and clears FROM everywhere else.
func hoistBase(frags []Fragment) {
	if len(frags) == 0 {
		return
	}
	i := slices.IndexFunc(frags, func(f Fragment) bool { return len(f.From) > 0 })
	if i < 0 {
		return
	}
	base := frags[i].From
	for j := range frags {
		frags[j].From = nil
	}
	frags[0].From = base
}

func dedupLinks(links []resolve.MissingLink) []resolve.MissingLink {
	seen := make(map[resolve.MissingLink]bool, len(links))
	out := links[:0]
	for _, l := range links {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}
