// SPDX-License-Identifier: MPL-2.0

// Package version parses the dotted version tokens used in slice, bucket and
// OS names, splits "name-version" compounds, and orders versions.
//
// Accepted shapes are full semantic versions (1.2.3, 1.2.3-beta.1+exp) and the
// shorthands 1 and 1.2, which expand to 1.0.0 and 1.2.0. Ordering follows
// semantic versioning precedence; build metadata only breaks ties so that
// Compare is a total order over distinct values.
package version
