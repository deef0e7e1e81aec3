// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers shared by the bundlesync tests: a fake
// clock for deterministic lock timestamps and fixture-tree helpers that
// write, read and snapshot directory trees.
package testutil
