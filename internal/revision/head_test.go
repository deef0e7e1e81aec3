// SPDX-License-Identifier: MPL-2.0

package revision

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

var fullHash = regexp.MustCompile(`^[0-9a-f]{40}$`)

func commitWithGoGit(t *testing.T, dir string) string {
	t.Helper()

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit() error: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "mod.json"), []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Add("mod.json"); err != nil {
		t.Fatal(err)
	}
	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "bundlesync", Email: "bundlesync@example.com", When: time.Unix(1700000000, 0)},
	})
	if err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	return hash.String()
}

func TestGoGit_Head(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	want := commitWithGoGit(t, dir)

	got, err := GoGit{}.Head(context.Background(), dir)
	if err != nil {
		t.Fatalf("Head() error: %v", err)
	}
	if got != want {
		t.Errorf("Head() = %q, want %q", got, want)
	}
}

func TestGoGit_HeadWithoutCommits(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, err := git.PlainInit(dir, false); err != nil {
		t.Fatal(err)
	}
	if _, err := (GoGit{}).Head(context.Background(), dir); err == nil {
		t.Error("Head() should fail for a repository without commits")
	}
}

func TestGitCLI_Head(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	dir := t.TempDir()
	want := commitWithGoGit(t, dir)

	got, err := GitCLI{}.Head(context.Background(), dir)
	if err != nil {
		t.Fatalf("Head() error: %v", err)
	}
	if got != want {
		t.Errorf("Head() = %q, want %q", got, want)
	}
}

func TestGitCLI_HeadIgnoresStderr(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	dir := t.TempDir()
	want := commitWithGoGit(t, dir)
	t.Setenv("GIT_TRACE", "1")

	first, err := GitCLI{}.Head(context.Background(), dir)
	if err != nil {
		t.Fatalf("Head() error: %v", err)
	}
	second, err := GitCLI{}.Head(context.Background(), dir)
	if err != nil {
		t.Fatalf("Head() error: %v", err)
	}
	if !fullHash.MatchString(first) {
		t.Errorf("Head() = %q, want a 40-character hex hash", first)
	}
	if first != want || second != first {
		t.Errorf("Head() = %q then %q, want %q both times", first, second, want)
	}
}

func TestGitCLI_FailureCarriesCommandAndOutput(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	dir := t.TempDir()
	if _, err := git.PlainInit(dir, false); err != nil {
		t.Fatal(err)
	}

	_, err := GitCLI{}.Head(context.Background(), dir)
	if !errors.Is(err, ErrExternalToolFailure) {
		t.Fatalf("Head() error = %v, want ErrExternalToolFailure", err)
	}
	var toolErr *ExternalToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("error should be *ExternalToolError, got %T", err)
	}
	if toolErr.ExitCode == 0 {
		t.Error("ExitCode should be non-zero")
	}
	if strings.Join(toolErr.Command, " ") != "git rev-parse HEAD" {
		t.Errorf("Command = %v", toolErr.Command)
	}
	if strings.TrimSpace(toolErr.Output) == "" {
		t.Error("Output should carry git's diagnostics")
	}
}

func TestGitCLI_MissingBinary(t *testing.T) {
	t.Parallel()

	_, err := GitCLI{Binary: "bundlesync-no-such-git"}.Head(context.Background(), t.TempDir())
	var toolErr *ExternalToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("Head() error = %v, want *ExternalToolError", err)
	}
	if toolErr.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1 when the binary cannot start", toolErr.ExitCode)
	}
}
