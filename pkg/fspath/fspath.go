// SPDX-License-Identifier: MPL-2.0

// Package fspath provides typed wrappers around path/filepath functions that
// accept and return types.FilesystemPath.
package fspath

import (
	"fmt"
	"path/filepath"

	"github.com/bundlesync/bundlesync/pkg/types"
)

// Join wraps filepath.Join, accepting and returning types.FilesystemPath.
func Join(elem ...types.FilesystemPath) types.FilesystemPath {
	strs := make([]string, len(elem))
	for i, e := range elem {
		strs[i] = string(e)
	}
	return types.FilesystemPath(filepath.Join(strs...))
}

// JoinStr wraps filepath.Join, accepting a typed base path and raw string
// segments such as file names returned by os.ReadDir or glob matches.
func JoinStr(base types.FilesystemPath, elem ...string) types.FilesystemPath {
	parts := make([]string, 1, 1+len(elem))
	parts[0] = string(base)
	parts = append(parts, elem...)
	return types.FilesystemPath(filepath.Join(parts...))
}

// Dir wraps filepath.Dir for FilesystemPath.
func Dir(p types.FilesystemPath) types.FilesystemPath {
	return types.FilesystemPath(filepath.Dir(string(p)))
}

// Abs wraps filepath.Abs for FilesystemPath. Returns an error if the
// underlying OS call fails.
func Abs(p types.FilesystemPath) (types.FilesystemPath, error) {
	abs, err := filepath.Abs(string(p))
	if err != nil {
		return "", fmt.Errorf("resolving absolute path: %w", err)
	}
	return types.FilesystemPath(abs), nil
}

// Clean wraps filepath.Clean for FilesystemPath.
func Clean(p types.FilesystemPath) types.FilesystemPath {
	return types.FilesystemPath(filepath.Clean(string(p)))
}

// IsAbs wraps filepath.IsAbs for FilesystemPath.
func IsAbs(p types.FilesystemPath) bool {
	return filepath.IsAbs(string(p))
}

// Resolve anchors a relative path at root and cleans the result.
// Absolute paths are only cleaned.
func Resolve(root, p types.FilesystemPath) types.FilesystemPath {
	if IsAbs(p) {
		return Clean(p)
	}
	return Join(root, p)
}

// SlashRel returns target relative to base using forward slashes, the form
// used for glob matching and content hashing on every platform.
func SlashRel(base, target types.FilesystemPath) (string, error) {
	rel, err := filepath.Rel(string(base), string(target))
	if err != nil {
		return "", fmt.Errorf("relativizing %s: %w", target, err)
	}
	return filepath.ToSlash(rel), nil
}
