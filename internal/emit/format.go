// SPDX-License-Identifier: MPL-2.0

package emit

import (
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

type (
	// Shell writes RUN items one per line.
	Shell struct{}

	// Docker writes the FROM items of the first fragment, then one RUN
	// instruction per fragment with items joined by "&& \" continuations.
	// Emit places the base image of a run on its first fragment.
	Docker struct{}
)

// Format implements Formatter.
func (Shell) Format(f Fragment, _ bool) string {
	var sb strings.Builder
	for _, item := range f.Run {
		sb.WriteString(item)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Format implements Formatter.
func (Docker) Format(f Fragment, first bool) string {
	var sb strings.Builder
	if first && len(f.From) > 0 {
		for _, from := range f.From {
			fmt.Fprintf(&sb, "FROM %s\n", from)
		}
		sb.WriteByte('\n')
	}
	if len(f.Run) > 0 {
		sb.WriteString("RUN ")
		sb.WriteString(strings.Join(f.Run, " && \\\n"))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ParseFormat returns the formatter for a format name: sh or shell, d,
// docker or dockerfile.
func ParseFormat(name string) (Formatter, error) {
	switch strings.ToLower(name) {
	case "sh", "shell":
		return Shell{}, nil
	case "d", "docker", "dockerfile":
		return Docker{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want sh or d)", name)
	}
}

// ValidateShell parses script as POSIX/bash shell and returns the first
// syntax error.
func ValidateShell(script string) error {
	_, err := syntax.NewParser().Parse(strings.NewReader(script), "script")
	return err
}
