// SPDX-License-Identifier: MPL-2.0

package slice

import (
	"bufio"
	"io"
	"strings"
)

// Kind is the keyword that opens a section.
type Kind int

// Section kinds. OS and DEP drive resolution, FROM and RUN are emitted, and
// the remaining Dockerfile keywords are parsed so their lines never leak into
// another section.
const (
	// KindOS lists the operating systems a slice supports.
	KindOS Kind = iota + 1
	// KindDEP lists the slices this one depends on.
	KindDEP
	KindADD
	KindCMD
	KindCOPY
	KindENTRYPOINT
	KindENV
	KindEXPOSE
	// KindFROM names the base image.
	KindFROM
	KindLABEL
	KindMAINTAINER
	KindONBUILD
	// KindRUN holds shell commands.
	KindRUN
	KindUSER
	KindVOLUME
	KindWORKDIR
)

var kindKeywords = []struct {
	kind    Kind
	keyword string
}{
	{KindOS, "OS"},
	{KindDEP, "DEP"},
	{KindADD, "ADD"},
	{KindCMD, "CMD"},
	{KindCOPY, "COPY"},
	{KindENTRYPOINT, "ENTRYPOINT"},
	{KindENV, "ENV"},
	{KindEXPOSE, "EXPOSE"},
	{KindFROM, "FROM"},
	{KindLABEL, "LABEL"},
	{KindMAINTAINER, "MAINTAINER"},
	{KindONBUILD, "ONBUILD"},
	{KindRUN, "RUN"},
	{KindUSER, "USER"},
	{KindVOLUME, "VOLUME"},
	{KindWORKDIR, "WORKDIR"},
}

// ParseKind returns the Kind for an exact, upper-case keyword.
func ParseKind(keyword string) (Kind, bool) {
	for _, k := range kindKeywords {
		if k.keyword == keyword {
			return k.kind, true
		}
	}
	return 0, false
}

// Kinds returns every section kind in keyword table order.
func Kinds() []Kind {
	out := make([]Kind, len(kindKeywords))
	for i, k := range kindKeywords {
		out[i] = k.kind
	}
	return out
}

func (k Kind) String() string {
	for _, kk := range kindKeywords {
		if kk.kind == k {
			return kk.keyword
		}
	}
	return "UNKNOWN"
}

// Section is one keyword followed by its item lines, blank lines removed.
type Section struct {
	Kind  Kind
	Items []string
}

// ParseSection reads one section from the head of lines. Leading blank lines
// are skipped. If the first non-blank line is not a keyword, no section is
// produced and ok is false. Otherwise items are collected until the next
// keyword line, which is left at the head of rest.
func ParseSection(lines []string) (sec Section, rest []string, ok bool) {
	i := 0
	for i < len(lines) && lines[i] == "" {
		i++
	}
	if i == len(lines) {
		return Section{}, nil, false
	}

	kind, isKeyword := ParseKind(lines[i])
	if !isKeyword {
		return Section{}, lines[i:], false
	}

	sec.Kind = kind
	for i++; i < len(lines); i++ {
		if _, next := ParseKind(lines[i]); next {
			return sec, lines[i:], true
		}
		if lines[i] != "" {
			sec.Items = append(sec.Items, lines[i])
		}
	}
	return sec, nil, true
}

// ParseSections parses every section in lines. It returns nil when lines do
// not start with a keyword, which marks the input as a non-slice.
func ParseSections(lines []string) []Section {
	var sections []Section
	for len(lines) > 0 {
		sec, rest, ok := ParseSection(lines)
		if !ok {
			break
		}
		sections = append(sections, sec)
		lines = rest
	}
	return sections
}

// ReadSections trims every line from r and parses the result.
func ReadSections(r io.Reader) ([]Section, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, strings.TrimSpace(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return ParseSections(lines), nil
}
