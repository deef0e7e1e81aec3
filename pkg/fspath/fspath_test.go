// SPDX-License-Identifier: MPL-2.0

package fspath_test

import (
	"path/filepath"
	"testing"

	"github.com/bundlesync/bundlesync/pkg/fspath"
	"github.com/bundlesync/bundlesync/pkg/types"
)

func TestJoin(t *testing.T) {
	t.Parallel()

	got := fspath.Join(types.FilesystemPath("home"), types.FilesystemPath("user"))
	want := types.FilesystemPath(filepath.Join("home", "user"))
	if got != want {
		t.Errorf("Join() = %q, want %q", got, want)
	}
}

func TestJoinStr_MultipleSegments(t *testing.T) {
	t.Parallel()

	got := fspath.JoinStr(types.FilesystemPath("src"), "main", "java")
	want := types.FilesystemPath(filepath.Join("src", "main", "java"))
	if got != want {
		t.Errorf("JoinStr() = %q, want %q", got, want)
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	root := types.FilesystemPath(filepath.FromSlash("/work/bundle"))

	got := fspath.Resolve(root, types.FilesystemPath(filepath.FromSlash("../upstream/rbm")))
	if want := types.FilesystemPath(filepath.FromSlash("/work/upstream/rbm")); got != want {
		t.Errorf("Resolve(relative) = %q, want %q", got, want)
	}

	abs := types.FilesystemPath(filepath.FromSlash("/opt/mods/./spdb"))
	if got := fspath.Resolve(root, abs); got != fspath.Clean(abs) {
		t.Errorf("Resolve(absolute) = %q, want %q", got, fspath.Clean(abs))
	}
}

func TestSlashRel(t *testing.T) {
	t.Parallel()

	base := types.FilesystemPath(filepath.FromSlash("/repo"))
	target := types.FilesystemPath(filepath.FromSlash("/repo/src/main/java/A.java"))

	got, err := fspath.SlashRel(base, target)
	if err != nil {
		t.Fatalf("SlashRel() error = %v", err)
	}
	if got != "src/main/java/A.java" {
		t.Errorf("SlashRel() = %q, want %q", got, "src/main/java/A.java")
	}
}
