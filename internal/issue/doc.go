// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors and Markdown guidance for the
// failures a user of sb can run into (missing catalog, missing dependencies,
// bad configuration, and so on).
package issue
