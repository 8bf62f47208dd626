// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"fmt"
	"slices"

	"github.com/slicebuild/sb/internal/dag"
	"github.com/slicebuild/sb/pkg/slice"
)

// Catalog is the flat set of slices visible after bucket selection, with at
// most one slice per name. It is read-only once Load returns.
type Catalog struct {
	root        string
	buckets     []Bucket
	slices      []*slice.Slice
	byName      map[string]int
	diagnostics []Diagnostic
}

func newCatalog(root string, buckets []Bucket) *Catalog {
	return &Catalog{
		root:    root,
		buckets: buckets,
		byName:  make(map[string]int),
	}
}

// New builds a Catalog directly from slices, folding same-named entries the
// way Load does. It is meant for tests and embedders that do not read from
// disk.
func New(list ...*slice.Slice) *Catalog {
	c := newCatalog("", nil)
	c.fold(list)
	return c
}

// fold merges one bucket's slices. A same-named slice replaces the earlier
// entry in place, regardless of version.
func (c *Catalog) fold(list []*slice.Slice) {
	for _, s := range list {
		if i, ok := c.byName[s.Name()]; ok {
			c.addReplaced(c.slices[i], s)
			c.slices[i] = s
			continue
		}
		c.byName[s.Name()] = len(c.slices)
		c.slices = append(c.slices, s)
	}
}

func (c *Catalog) addDiagnostic(d Diagnostic) {
	c.diagnostics = append(c.diagnostics, d)
}

func (c *Catalog) addReplaced(old, winner *slice.Slice) {
	c.addDiagnostic(Diagnostic{
		Severity: SeverityInfo,
		Code:     CodeSliceReplaced,
		Message:  fmt.Sprintf("%s replaced by %s (%s)", old.ID(), winner.ID(), winner.Path()),
		Path:     old.Path(),
	})
}

// Root is the slices root the catalog was loaded from.
func (c *Catalog) Root() string {
	return c.root
}

// Buckets returns the buckets that were read, in load order.
func (c *Catalog) Buckets() []Bucket {
	return slices.Clone(c.buckets)
}

// Slices returns the slices in catalog order.
func (c *Catalog) Slices() []*slice.Slice {
	return slices.Clone(c.slices)
}

// Len returns the number of slices.
func (c *Catalog) Len() int {
	return len(c.slices)
}

// Get returns the slice named name.
func (c *Catalog) Get(name string) (*slice.Slice, bool) {
	i, ok := c.byName[name]
	if !ok {
		return nil, false
	}
	return c.slices[i], true
}

// Names returns every slice name in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.slices))
	for i, s := range c.slices {
		names[i] = s.Name()
	}
	return names
}

// Diagnostics returns the non-fatal findings gathered while loading.
func (c *Catalog) Diagnostics() []Diagnostic {
	return slices.Clone(c.diagnostics)
}

// DependencyGraph returns a graph with an edge from every DEP name to the
// slice that declares it. Names without a definition appear as plain nodes.
func (c *Catalog) DependencyGraph() *dag.Graph {
	g := dag.New()
	for _, s := range c.slices {
		g.AddNode(s.Name())
		for _, dep := range s.Dependencies() {
			g.AddEdge(dep, s.Name())
		}
	}
	return g
}
