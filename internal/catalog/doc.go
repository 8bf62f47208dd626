// SPDX-License-Identifier: MPL-2.0

// Package catalog loads slice definitions from a slices root.
//
// The root holds version-stamped bucket directories (slices-1.0.1, 1.0.0-alpha,
// ...). Only buckets sharing the highest major version are read, lowest
// version first, and a slice from a later bucket replaces an earlier slice of
// the same name. Files that are not slice definitions are skipped and
// reported as diagnostics rather than errors.
package catalog
