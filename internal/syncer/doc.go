// SPDX-License-Identifier: MPL-2.0

// Package syncer runs a synchronization: it resolves every configured unit,
// compares the result against the lock file and, in apply mode, copies the
// units' sources (patching entry files), merges translation tables and
// rewrites the lock file.
//
// Apply runs plan everything in memory first. Nothing is written until every
// unit resolved, every entry file patched and every table merged.
package syncer
