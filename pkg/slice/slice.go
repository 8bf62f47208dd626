// SPDX-License-Identifier: MPL-2.0

package slice

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/slicebuild/sb/pkg/version"
)

// ErrMissingOSSection is returned when OS information is requested from a
// slice that declares none. Callers are expected to filter such slices out
// before asking.
var ErrMissingOSSection = errors.New("slice has no OS section")

type (
	// Slice is one loaded definition. It is never modified after New.
	Slice struct {
		name     string
		version  version.Version
		path     string
		sections []Section
	}

	// OS is one entry of a slice's OS section, such as debian-8.2.
	OS struct {
		Name    string
		Version version.Version
	}

	// MissingOSSectionError names the slice that lacks an OS section.
	MissingOSSectionError struct {
		Slice string
		Path  string
	}
)

func (e *MissingOSSectionError) Error() string {
	return fmt.Sprintf("slice %q (%s) has no OS section", e.Slice, e.Path)
}

func (e *MissingOSSectionError) Unwrap() error {
	return ErrMissingOSSection
}

// New builds a Slice. The name is lower-cased and sections are copied.
func New(name string, v version.Version, path string, sections []Section) *Slice {
	cp := make([]Section, len(sections))
	for i, s := range sections {
		cp[i] = Section{Kind: s.Kind, Items: slices.Clone(s.Items)}
	}
	return &Slice{
		name:     strings.ToLower(name),
		version:  v,
		path:     path,
		sections: cp,
	}
}

// Name is the lowercased slice name without its version.
func (s *Slice) Name() string {
	return s.name
}

// Version is the version parsed from the file name, or the zero version.
func (s *Slice) Version() version.Version {
	return s.version
}

// Path is the definition file the slice was loaded from.
func (s *Slice) Path() string {
	return s.path
}

// ID is name-version, the form used on the command line.
func (s *Slice) ID() string {
	return s.name + "-" + s.version.String()
}

// Sections returns a copy of the sections in file order.
func (s *Slice) Sections() []Section {
	out := make([]Section, len(s.sections))
	for i, sec := range s.sections {
		out[i] = Section{Kind: sec.Kind, Items: slices.Clone(sec.Items)}
	}
	return out
}

// Section returns the first section of kind k.
func (s *Slice) Section(k Kind) (Section, bool) {
	for _, sec := range s.sections {
		if sec.Kind == k {
			return Section{Kind: sec.Kind, Items: slices.Clone(sec.Items)}, true
		}
	}
	return Section{}, false
}

// SectionItems returns the items of the first section of kind k, or nil.
func (s *Slice) SectionItems(k Kind) []string {
	sec, _ := s.Section(k)
	return sec.Items
}

// HasOSSection reports whether the slice declares supported systems.
func (s *Slice) HasOSSection() bool {
	_, ok := s.Section(KindOS)
	return ok
}

// Dependencies returns the lower-cased DEP items without duplicates, in file
// order.
func (s *Slice) Dependencies() []string {
	var deps []string
	for _, item := range s.SectionItems(KindDEP) {
		name := strings.ToLower(item)
		if !slices.Contains(deps, name) {
			deps = append(deps, name)
		}
	}
	return deps
}

// OSList parses the OS section. Items starting with '#' are comments.
func (s *Slice) OSList() ([]OS, error) {
	sec, ok := s.Section(KindOS)
	if !ok {
		return nil, &MissingOSSectionError{Slice: s.name, Path: s.path}
	}

	list := make([]OS, 0, len(sec.Items))
	for _, item := range sec.Items {
		if strings.HasPrefix(item, "#") {
			continue
		}
		name, v, err := version.ExtractNameAndVersion(strings.ToLower(item))
		if err != nil {
			return nil, fmt.Errorf("slice %q OS entry %q: %w", s.name, item, err)
		}
		list = append(list, OS{Name: name, Version: v})
	}
	return list, nil
}

// SupportsOS reports whether any OS entry has the requested name and a
// version that satisfies policy against the requested version.
func (s *Slice) SupportsOS(name string, v version.Version, policy version.Policy) (bool, error) {
	list, err := s.OSList()
	if err != nil {
		return false, err
	}
	name = strings.ToLower(name)
	for _, os := range list {
		if os.Name == name && policy.Matches(os.Version, v) {
			return true, nil
		}
	}
	return false, nil
}

// String formats the entry as name-version, or just name for 0.0.0.
func (o OS) String() string {
	if o.Version.IsZero() {
		return o.Name
	}
	return o.Name + "-" + o.Version.String()
}
