// SPDX-License-Identifier: MPL-2.0

package resolve

type (
	// NodeID addresses a node in a Resolver's arena.
	NodeID int

	// Resolution is the dependency outcome of one node. It is either Complete
	// or Missing; consumers switch on the concrete type.
	Resolution interface {
		// Found returns the dependencies that were located.
		Found() []NodeID
		resolution()
	}

	// Complete means every dependency name was found.
	Complete struct {
		Deps []NodeID
	}

	// Missing means at least one dependency name was not found. Deps still
	// lists the ones that were, so the tree below can be inspected.
	Missing struct {
		Names []string
		Deps  []NodeID
	}
)

func (c Complete) Found() []NodeID { return c.Deps }
func (m Missing) Found() []NodeID  { return m.Deps }

func (Complete) resolution() {}
func (Missing) resolution()  {}

// MissingLink is one dependency edge whose target was not found.
type MissingLink struct {
	// Slice is the name of the slice declaring the dependency.
	Slice string
	// Dependency is the name that could not be resolved.
	Dependency string
}
