// SPDX-License-Identifier: MPL-2.0

// Package revision computes the revision token of an upstream working copy.
//
// A working copy with a .git entry at its root is identified by its HEAD
// commit, read either through the git CLI or through go-git. A working copy
// without version-control metadata (allowed per unit) is identified by a
// SHA-1 over its tracked files. Nothing in this package touches the network.
package revision
