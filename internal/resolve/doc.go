// SPDX-License-Identifier: MPL-2.0

// Package resolve links loaded slices to their dependencies.
//
// A Resolver owns an arena of nodes addressed by NodeID. Every node carries
// exactly one Resolution: Complete when every DEP name was found, Missing
// otherwise. Dependency links are NodeIDs into the same arena, so a slice
// shared by many dependents is materialized once. The arena is built in
// dependency-before-dependent order and never changes afterwards.
package resolve
