// SPDX-License-Identifier: MPL-2.0

package dag

import (
	"errors"
	"slices"
	"testing"
)

func TestTopologicalSort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		edges [][2]string
		nodes []string
		want  []string
	}{
		{name: "empty", want: nil},
		{name: "single node", nodes: []string{"wget"}, want: []string{"wget"}},
		{
			name:  "chain",
			edges: [][2]string{{"wget", "ruby"}, {"ruby", "jekyll"}},
			want:  []string{"wget", "ruby", "jekyll"},
		},
		{
			name:  "diamond keeps insertion order per level",
			edges: [][2]string{{"debian", "wget"}, {"debian", "curl"}, {"wget", "ruby"}, {"curl", "ruby"}},
			want:  []string{"debian", "wget", "curl", "ruby"},
		},
		{
			name:  "duplicate edges",
			edges: [][2]string{{"wget", "ruby"}, {"wget", "ruby"}},
			want:  []string{"wget", "ruby"},
		},
		{
			name:  "disconnected",
			edges: [][2]string{{"wget", "ruby"}},
			nodes: []string{"nginx"},
			want:  []string{"wget", "nginx", "ruby"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := New()
			for _, e := range tt.edges {
				g.AddEdge(e[0], e[1])
			}
			for _, n := range tt.nodes {
				g.AddNode(n)
			}
			got, err := g.TopologicalSort()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("TopologicalSort() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTopologicalSort_Cycle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		edges [][2]string
		want  []string
	}{
		{name: "self loop", edges: [][2]string{{"ruby", "ruby"}}, want: []string{"ruby", "ruby"}},
		{name: "pair", edges: [][2]string{{"ruby", "gem"}, {"gem", "ruby"}}, want: []string{"ruby", "gem", "ruby"}},
		{
			name:  "loop behind a prefix",
			edges: [][2]string{{"jekyll", "ruby"}, {"ruby", "gem"}, {"gem", "bundler"}, {"bundler", "ruby"}},
			want:  []string{"ruby", "gem", "bundler", "ruby"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := New()
			for _, e := range tt.edges {
				g.AddEdge(e[0], e[1])
			}
			_, err := g.TopologicalSort()
			var cycleErr *CycleError
			if !errors.As(err, &cycleErr) {
				t.Fatalf("expected *CycleError, got %T: %v", err, err)
			}
			if !slices.Equal(cycleErr.Cycle, tt.want) {
				t.Errorf("Cycle = %v, want %v", cycleErr.Cycle, tt.want)
			}
		})
	}
}

func TestFindCycle_Acyclic(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddEdge("a", "b")
	g.AddEdge("a", "c")
	g.AddEdge("b", "c")
	if c := g.FindCycle(); c != nil {
		t.Errorf("FindCycle() = %v, want nil", c)
	}
	if g.Len() != 3 {
		t.Errorf("Len() = %d, want 3", g.Len())
	}
}

func TestCycleError_Message(t *testing.T) {
	t.Parallel()
	err := &CycleError{Cycle: []string{"a", "b", "a"}}
	if got, want := err.Error(), "dependency cycle detected: a -> b -> a"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
