// SPDX-License-Identifier: MPL-2.0

// Package patch applies the bundling hooks to a unit's entry source file.
//
// The engine is anchored on a handful of textual shapes (the mod class
// declaration, the settings-category call site, the settings registration
// method and its null-check guard) and edits only around them. It never
// parses the language; brace matching is delegated to pkg/brace.
//
// Apply is a pure function of its input: it inspects the text before every
// step and skips steps whose result is already present, so running it on
// its own output returns that output unchanged.
package patch
