// SPDX-License-Identifier: MPL-2.0

package version

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// ErrInvalidVersion is the sentinel matched by every InvalidVersionError.
var ErrInvalidVersion = errors.New("invalid version")

var strictRegex = regexp.MustCompile(
	`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)` +
		`(?:-((?:0|[1-9]\d*|\d*[A-Za-z-][0-9A-Za-z-]*)(?:\.(?:0|[1-9]\d*|\d*[A-Za-z-][0-9A-Za-z-]*))*))?` +
		`(?:\+([0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*))?$`)

type (
	// Version is a parsed version. The zero value is 0.0.0.
	Version struct {
		Major      uint64
		Minor      uint64
		Patch      uint64
		Prerelease []string
		Build      string
	}

	// InvalidVersionError reports text that is neither a semantic version nor
	// one of the numeric shorthands.
	InvalidVersionError struct {
		Text string
	}
)

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("invalid version %q", e.Text)
}

func (e *InvalidVersionError) Unwrap() error {
	return ErrInvalidVersion
}

// Zero returns 0.0.0.
func Zero() Version {
	return Version{}
}

// MustParse is Parse for literals known to be valid. It panics otherwise.
func MustParse(text string) Version {
	v, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return v
}

// Parse reads text as major[.minor[.patch[-prerelease][+build]]]. The strict
// semantic form is tried first; on failure one to three dot-separated numbers
// without prerelease or build are accepted. Empty text yields Zero.
func Parse(text string) (Version, error) {
	if text == "" {
		return Zero(), nil
	}

	if m := strictRegex.FindStringSubmatch(text); m != nil {
		v := Version{Build: m[5]}
		// The regex guarantees decimal digits; only overflow can fail.
		var err error
		if v.Major, err = strconv.ParseUint(m[1], 10, 64); err != nil {
			return Version{}, &InvalidVersionError{Text: text}
		}
		if v.Minor, err = strconv.ParseUint(m[2], 10, 64); err != nil {
			return Version{}, &InvalidVersionError{Text: text}
		}
		if v.Patch, err = strconv.ParseUint(m[3], 10, 64); err != nil {
			return Version{}, &InvalidVersionError{Text: text}
		}
		if m[4] != "" {
			v.Prerelease = strings.Split(m[4], ".")
		}
		return v, nil
	}

	return parseShorthand(text)
}

func parseShorthand(text string) (Version, error) {
	parts := strings.Split(text, ".")
	if len(parts) > 3 {
		return Version{}, &InvalidVersionError{Text: text}
	}

	var nums [3]uint64
	for i, p := range parts {
		if p == "" || strings.TrimLeft(p, "0123456789") != "" {
			return Version{}, &InvalidVersionError{Text: text}
		}
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return Version{}, &InvalidVersionError{Text: text}
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// ExtractNameAndVersion splits a "name-version" compound at the last '-' that
// is immediately followed by a digit, so "my-app-2.0.0-beta" becomes
// ("my-app", 2.0.0-beta). A token without such a boundary is all name and gets
// the zero version.
func ExtractNameAndVersion(token string) (string, Version, error) {
	for i := len(token) - 2; i > 0; i-- {
		if token[i] != '-' || !isDigit(token[i+1]) {
			continue
		}
		v, err := Parse(token[i+1:])
		if err != nil {
			return "", Version{}, err
		}
		return token[:i], v, nil
	}
	return token, Zero(), nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// IsZero reports whether v is 0.0.0 without prerelease or build.
func (v Version) IsZero() bool {
	return v.Major == 0 && v.Minor == 0 && v.Patch == 0 && len(v.Prerelease) == 0 && v.Build == ""
}

// IsPrerelease reports whether v carries prerelease identifiers.
func (v Version) IsPrerelease() bool {
	return len(v.Prerelease) > 0
}

// String formats v in full semantic form.
func (v Version) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d.%d.%d", v.Major, v.Minor, v.Patch)
	if len(v.Prerelease) > 0 {
		sb.WriteByte('-')
		sb.WriteString(strings.Join(v.Prerelease, "."))
	}
	if v.Build != "" {
		sb.WriteByte('+')
		sb.WriteString(v.Build)
	}
	return sb.String()
}

// semver returns v in the "v"-prefixed form golang.org/x/mod/semver expects,
// without build metadata.
func (v Version) semver() string {
	s := fmt.Sprintf("v%d.%d.%d", v.Major, v.Minor, v.Patch)
	if len(v.Prerelease) > 0 {
		s += "-" + strings.Join(v.Prerelease, ".")
	}
	return s
}

// Compare returns -1, 0 or +1. Precedence is major, minor, patch, then
// prerelease (a release ranks above any of its prereleases, numeric
// identifiers compare numerically and rank below alphanumeric ones). Build
// metadata is compared lexically last.
func (v Version) Compare(o Version) int {
	if c := semver.Compare(v.semver(), o.semver()); c != 0 {
		return c
	}
	return strings.Compare(v.Build, o.Build)
}

// Equal reports whether v and o are the same version.
func (v Version) Equal(o Version) bool {
	return v.Compare(o) == 0
}

// Less reports whether v sorts before o.
func (v Version) Less(o Version) bool {
	return v.Compare(o) < 0
}

// Compare is the function form of Version.Compare, for slices.SortFunc.
func Compare(a, b Version) int {
	return a.Compare(b)
}
