// SPDX-License-Identifier: MPL-2.0

package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is an output format for Render.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatDOT  Format = "dot"
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// Formats returns every supported format.
func Formats() []Format {
	return []Format{FormatText, FormatJSON, FormatDOT, FormatTOML, FormatYAML}
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(s))
	if f == "yml" {
		return FormatYAML, nil
	}
	if !slices.Contains(Formats(), f) {
		return "", fmt.Errorf("unknown graph format %q (want text, json, dot, toml or yaml)", s)
	}
	return f, nil
}

// document is the top-level value for formats that need a named root.
type document struct {
	Slices []Tree `json:"slices" yaml:"slices" toml:"slices"`
}

// Render writes trees to w in format f.
func Render(w io.Writer, trees []Tree, f Format) error {
	switch f {
	case FormatText:
		_, err := io.WriteString(w, ToText(trees))
		return err
	case FormatDOT:
		_, err := io.WriteString(w, ToDOT(trees))
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(document{Slices: trees})
	case FormatTOML:
		return toml.NewEncoder(w).Encode(document{Slices: trees})
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(document{Slices: trees}); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown graph format %q", f)
	}
}

// ToText draws each tree with box-drawing connectors.
func ToText(trees []Tree) string {
	var sb strings.Builder
	for _, t := range trees {
		writeNode(&sb, t, "", "")
	}
	return sb.String()
}

func writeNode(sb *strings.Builder, t Tree, prefix, connector string) {
	sb.WriteString(prefix + connector + t.Name + "-" + t.Version)
	if t.Repeated {
		sb.WriteString(" (repeated)")
	}
	if len(t.Missing) > 0 {
		sb.WriteString(" (missing: " + strings.Join(t.Missing, ", ") + ")")
	}
	sb.WriteByte('\n')

	childPrefix := prefix
	switch connector {
	case "├── ":
		childPrefix += "│   "
	case "└── ":
		childPrefix += "    "
	}
	for i, dep := range t.Dependencies {
		c := "├── "
		if i == len(t.Dependencies)-1 {
			c = "└── "
		}
		writeNode(sb, dep, childPrefix, c)
	}
}

// ToDOT renders the trees as one Graphviz digraph. Edges point from a slice
// to what it depends on; missing names are drawn dashed.
func ToDOT(trees []Tree) string {
	var sb strings.Builder
	sb.WriteString("digraph slices {\n")
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=box];\n\n")

	seen := make(map[string]bool)
	var walk func(Tree)
	walk = func(t Tree) {
		for _, dep := range t.Dependencies {
			edge := fmt.Sprintf("  %q -> %q;\n", t.Name, dep.Name)
			if !seen[edge] {
				seen[edge] = true
				sb.WriteString(edge)
			}
			walk(dep)
		}
		for _, m := range t.Missing {
			node := fmt.Sprintf("  %q [style=dashed, color=red];\n", m)
			if !seen[node] {
				seen[node] = true
				sb.WriteString(node)
			}
			edge := fmt.Sprintf("  %q -> %q [style=dashed];\n", t.Name, m)
			if !seen[edge] {
				seen[edge] = true
				sb.WriteString(edge)
			}
		}
	}
	for _, t := range trees {
		root := fmt.Sprintf("  %q [style=bold];\n", t.Name)
		if !seen[root] {
			seen[root] = true
			sb.WriteString(root)
		}
		walk(t)
	}

	sb.WriteString("}\n")
	return sb.String()
}
