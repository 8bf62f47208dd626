// SPDX-License-Identifier: MPL-2.0

package version

import (
	"fmt"
	"strings"
)

// Policy decides which candidate versions satisfy a requested version.
type Policy int

const (
	// Exact accepts only a candidate equal to the request.
	Exact Policy = iota
	// ExactOrLesser accepts candidates at or below the request.
	ExactOrLesser
	// ExactOrGreater accepts candidates at or above the request.
	ExactOrGreater
)

var policyNames = map[Policy]string{
	Exact:          "exact",
	ExactOrLesser:  "exact-or-lesser",
	ExactOrGreater: "exact-or-greater",
}

// Policies returns every policy in declaration order.
func Policies() []Policy {
	return []Policy{Exact, ExactOrLesser, ExactOrGreater}
}

// ParsePolicy reads a policy name. Matching ignores case, and "lesser" and
// "greater" are accepted as short forms.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exact", "eq":
		return Exact, nil
	case "exact-or-lesser", "lesser", "le":
		return ExactOrLesser, nil
	case "exact-or-greater", "greater", "ge":
		return ExactOrGreater, nil
	default:
		return Exact, fmt.Errorf("unknown version policy %q (want exact, exact-or-lesser or exact-or-greater)", s)
	}
}

func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// Matches reports whether candidate satisfies requested under p.
func (p Policy) Matches(candidate, requested Version) bool {
	c := candidate.Compare(requested)
	switch p {
	case Exact:
		return c == 0
	case ExactOrLesser:
		return c <= 0
	case ExactOrGreater:
		return c >= 0
	default:
		return false
	}
}

// Set implements pflag.Value.
func (p *Policy) Set(s string) error {
	parsed, err := ParsePolicy(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Type implements pflag.Value.
func (p *Policy) Type() string {
	return "policy"
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(b []byte) error {
	return p.Set(string(b))
}
