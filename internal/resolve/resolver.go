// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/slicebuild/sb/pkg/slice"
	"github.com/slicebuild/sb/pkg/version"
)

const (
	// CodeNoOSSection marks a slice left out because it declares no OS.
	CodeNoOSSection = "no_os_section"
	// CodeUnsupportedOS marks a slice left out because it does not list the
	// requested OS.
	CodeUnsupportedOS = "unsupported_os"
	// CodeDependencyCycle marks a dependency that points back at a slice
	// still being resolved. The edge is recorded as missing.
	CodeDependencyCycle = "dependency_cycle"
	// CodeDuplicateName marks a pool slice dropped because a slice of the
	// same name was already resolved.
	CodeDuplicateName = "duplicate_name"
)

type (
	// Options control a resolution run.
	Options struct {
		// OS is the requested operating system.
		OS slice.OS
		// Policy decides which OS entries and versioned DEP references match.
		Policy version.Policy
		// OSBaseDependency makes every slice depend on the slice named after
		// the requested OS, when such a slice is available.
		OSBaseDependency bool
		// Logger receives debug output. Nil means slog.Default().
		Logger *slog.Logger
	}

	// Diagnostic is a non-fatal finding of a resolution run.
	Diagnostic struct {
		Code    string
		Slice   string
		Message string
	}

	node struct {
		slice *slice.Slice
		// order is the position of the slice in the input list.
		order      int
		resolution Resolution
	}

	candidate struct {
		slice *slice.Slice
		order int
	}

	// Resolver is the resolved form of a catalog for one OS. It is read-only
	// after New returns.
	Resolver struct {
		opts        Options
		nodes       []node
		diagnostics []Diagnostic
	}

	// builder holds the mutable state used only while New runs.
	builder struct {
		r         *Resolver
		pool      []candidate
		resolving map[string]bool
		logger    *slog.Logger
	}
)

// ParseOS reads a requested OS such as "debian" or "debian-8.2".
func ParseOS(s string) (slice.OS, error) {
	name, v, err := version.ExtractNameAndVersion(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return slice.OS{}, err
	}
	if name == "" {
		return slice.OS{}, fmt.Errorf("empty OS name in %q", s)
	}
	if strings.Contains(name, ".") {
		return slice.OS{}, fmt.Errorf("%w: %q", version.ErrInvalidVersion, s)
	}
	return slice.OS{Name: name, Version: v}, nil
}

// FilterByOS returns the slices that list an OS entry matching os under
// policy, in input order. An os without a version matches by name only.
// Slices without an OS section are left out and reported. An OS entry with a
// malformed version is an error.
func FilterByOS(list []*slice.Slice, os slice.OS, policy version.Policy) ([]*slice.Slice, []Diagnostic, error) {
	kept, diags, err := filterByOS(list, os, policy)
	if err != nil {
		return nil, nil, err
	}
	out := make([]*slice.Slice, len(kept))
	for i, c := range kept {
		out[i] = c.slice
	}
	return out, diags, nil
}

func filterByOS(list []*slice.Slice, os slice.OS, policy version.Policy) ([]candidate, []Diagnostic, error) {
	var (
		kept  []candidate
		diags []Diagnostic
	)
	for i, s := range list {
		if !s.HasOSSection() {
			diags = append(diags, Diagnostic{
				Code:    CodeNoOSSection,
				Slice:   s.Name(),
				Message: fmt.Sprintf("%s has no OS section (%s)", s.ID(), s.Path()),
			})
			continue
		}
		ok, err := supportsOS(s, os, policy)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			diags = append(diags, Diagnostic{
				Code:    CodeUnsupportedOS,
				Slice:   s.Name(),
				Message: fmt.Sprintf("%s does not support %s", s.ID(), os),
			})
			continue
		}
		kept = append(kept, candidate{slice: s, order: i})
	}
	return kept, diags, nil
}

// supportsOS is slice.SupportsOS except that a requested OS without a
// version accepts every version of that OS.
func supportsOS(s *slice.Slice, os slice.OS, policy version.Policy) (bool, error) {
	if !os.Version.IsZero() {
		return s.SupportsOS(os.Name, os.Version, policy)
	}
	list, err := s.OSList()
	if err != nil {
		return false, err
	}
	for _, entry := range list {
		if entry.Name == os.Name {
			return true, nil
		}
	}
	return false, nil
}

// New filters list by opts.OS and resolves every remaining slice.
func New(list []*slice.Slice, opts Options) (*Resolver, error) {
	pool, diags, err := filterByOS(list, opts.OS, opts.Policy)
	if err != nil {
		return nil, err
	}

	r := &Resolver{opts: opts, diagnostics: diags}
	b := &builder{
		r:         r,
		pool:      pool,
		resolving: make(map[string]bool),
		logger:    cmp.Or(opts.Logger, slog.Default()),
	}

	for len(b.pool) > 0 {
		c := b.pool[0]
		b.pool = b.pool[1:]
		if _, exists := r.find(c.slice.Name(), anyVersion); exists {
			b.diag(CodeDuplicateName, c.slice.Name(), fmt.Sprintf("%s dropped: a slice named %s is already resolved", c.slice.ID(), c.slice.Name()))
			continue
		}
		b.resolve(c)
	}

	b.logger.Debug("resolved slices", "os", opts.OS.String(), "policy", opts.Policy.String(), "count", len(r.nodes))
	return r, nil
}

func (b *builder) diag(code, name, msg string) {
	b.r.diagnostics = append(b.r.diagnostics, Diagnostic{Code: code, Slice: name, Message: msg})
}

// dependencies returns the DEP references of s, with the OS base slice first
// when that option is on.
func (b *builder) dependencies(s *slice.Slice) []string {
	deps := s.Dependencies()
	base := b.r.opts.OS.Name
	if !b.r.opts.OSBaseDependency || s.Name() == base || slices.Contains(deps, base) {
		return deps
	}
	if b.poolIndex(base, anyVersion) < 0 {
		if _, ok := b.r.find(base, anyVersion); !ok {
			return deps
		}
	}
	return append([]string{base}, deps...)
}

// matcher builds the version filter for a DEP reference. A reference without
// a version accepts any version.
func (b *builder) matcher(want version.Version) func(version.Version) bool {
	if want.IsZero() {
		return anyVersion
	}
	policy := b.r.opts.Policy
	return func(v version.Version) bool {
		return policy.Matches(v, want)
	}
}

func anyVersion(version.Version) bool { return true }

func (b *builder) resolve(c candidate) NodeID {
	name := c.slice.Name()
	b.resolving[name] = true
	defer delete(b.resolving, name)

	var (
		found   []NodeID
		missing []string
	)
	for _, ref := range b.dependencies(c.slice) {
		depName, want, err := version.ExtractNameAndVersion(ref)
		if err != nil {
			depName, want = ref, version.Zero()
		}

		if b.resolving[depName] {
			b.diag(CodeDependencyCycle, name, fmt.Sprintf("%s depends on %s, which depends back on it", name, depName))
			missing = append(missing, depName)
			continue
		}

		match := b.matcher(want)
		pi := b.poolIndex(depName, match)
		out, inOutput := b.r.find(depName, match)

		switch {
		case pi >= 0 && (!inOutput || b.pool[pi].slice.Version().Compare(b.r.nodes[out].slice.Version()) > 0):
			dep := b.pool[pi]
			b.pool = slices.Delete(b.pool, pi, pi+1)
			found = append(found, b.resolve(dep))
		case inOutput:
			found = append(found, out)
		default:
			missing = append(missing, depName)
		}
	}

	var res Resolution = Complete{Deps: found}
	if len(missing) > 0 {
		res = Missing{Names: missing, Deps: found}
		b.logger.Debug("unresolved dependencies", "slice", c.slice.ID(), "missing", missing)
	}
	id := NodeID(len(b.r.nodes))
	b.r.nodes = append(b.r.nodes, node{slice: c.slice, order: c.order, resolution: res})
	return id
}

// poolIndex returns the index of the highest-version pool slice named name
// accepted by match, or -1.
func (b *builder) poolIndex(name string, match func(version.Version) bool) int {
	best := -1
	for i, c := range b.pool {
		if c.slice.Name() != name || !match(c.slice.Version()) {
			continue
		}
		if best < 0 || c.slice.Version().Compare(b.pool[best].slice.Version()) > 0 {
			best = i
		}
	}
	return best
}

// find returns the highest-version node named name accepted by match.
func (r *Resolver) find(name string, match func(version.Version) bool) (NodeID, bool) {
	best := NodeID(-1)
	for i, n := range r.nodes {
		if n.slice.Name() != name || !match(n.slice.Version()) {
			continue
		}
		if best < 0 || n.slice.Version().Compare(r.nodes[best].slice.Version()) > 0 {
			best = NodeID(i)
		}
	}
	return best, best >= 0
}
