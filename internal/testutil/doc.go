// SPDX-License-Identifier: MPL-2.0

// Package testutil provides test helpers: Must* wrappers that fail the test
// on error, and builders for on-disk slice catalogs.
package testutil
