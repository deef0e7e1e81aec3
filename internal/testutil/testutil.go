// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

type (
	// Tree maps slash-separated relative paths to file contents.
	Tree map[string]string

	// FileState is the observable state of one file in a Snapshot.
	FileState struct {
		Content []byte
		ModTime time.Time
		Mode    fs.FileMode
	}

	// Snapshot captures every file and directory under a root.
	Snapshot map[string]FileState
)

// MustMkdirAll creates the directory path with all parents.
// The test fails immediately if the operation fails.
func MustMkdirAll(t testing.TB, path string, perm os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(path, perm); err != nil {
		t.Fatalf("failed to create directory %s: %v", path, err)
	}
}

// WriteTree writes every file of tree under root, creating directories.
func WriteTree(t testing.TB, root string, tree Tree) {
	t.Helper()
	for rel, content := range tree {
		path := filepath.Join(root, filepath.FromSlash(rel))
		MustMkdirAll(t, filepath.Dir(path), 0o755)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}
}

// ReadTree returns every regular file under root. A missing root yields an
// empty tree.
func ReadTree(t testing.TB, root string) Tree {
	t.Helper()
	tree := make(Tree)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == root {
				return filepath.SkipDir
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		tree[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("failed to read tree %s: %v", root, err)
	}
	return tree
}

// Paths returns the tree's paths in sorted order.
func (tr Tree) Paths() []string {
	paths := make([]string, 0, len(tr))
	for p := range tr {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// TakeSnapshot records content, modification time and mode of every entry
// under root.
func TakeSnapshot(t testing.TB, root string) Snapshot {
	t.Helper()
	snap := make(Snapshot)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		state := FileState{ModTime: info.ModTime(), Mode: info.Mode()}
		if d.Type().IsRegular() {
			if state.Content, err = os.ReadFile(path); err != nil {
				return err
			}
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		snap[filepath.ToSlash(rel)] = state
		return nil
	})
	if err != nil {
		t.Fatalf("failed to snapshot %s: %v", root, err)
	}
	return snap
}

// Diff lists the paths that were added, removed or changed between s and
// other, sorted.
func (s Snapshot) Diff(other Snapshot) []string {
	var changed []string
	for p, before := range s {
		after, ok := other[p]
		if !ok || !bytes.Equal(before.Content, after.Content) ||
			!before.ModTime.Equal(after.ModTime) || before.Mode != after.Mode {
			changed = append(changed, p)
		}
	}
	for p := range other {
		if _, ok := s[p]; !ok {
			changed = append(changed, p)
		}
	}
	slices.Sort(changed)
	return changed
}
