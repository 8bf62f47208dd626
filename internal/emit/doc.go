// SPDX-License-Identifier: MPL-2.0

// Package emit turns resolved slices into a provisioning script.
//
// Slices are visited dependencies first, each at most once, and the content
// of every visited slice is handed to a Formatter (shell script or
// Dockerfile). Emission refuses to run when a requested slice, or anything
// below it, has missing dependencies.
package emit
