// SPDX-License-Identifier: MPL-2.0

package revision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/go-git/go-git/v5"
)

const (
	// BackendGit reads HEAD by running the git CLI.
	BackendGit = "git"
	// BackendGoGit reads HEAD in-process with go-git.
	BackendGoGit = "go-git"
)

// ErrUnknownBackend is returned by NewHeadReader for unsupported backends.
var ErrUnknownBackend = errors.New("unknown version-control backend")

type (
	// HeadReader returns the current head identifier of a working copy.
	HeadReader interface {
		Head(ctx context.Context, dir string) (string, error)
	}

	// GitCLI reads HEAD with `git rev-parse HEAD`.
	GitCLI struct {
		// Binary overrides the git executable (default "git").
		Binary string
	}

	// GoGit reads HEAD by opening the repository with go-git.
	GoGit struct{}
)

// NewHeadReader returns the HeadReader for a configured backend name.
// An empty name selects BackendGit.
func NewHeadReader(backend string) (HeadReader, error) {
	switch backend {
	case "", BackendGit:
		return GitCLI{}, nil
	case BackendGoGit:
		return GoGit{}, nil
	default:
		return nil, fmt.Errorf("%w: %q (want %q or %q)", ErrUnknownBackend, backend, BackendGit, BackendGoGit)
	}
}

// Head runs git in dir. Only stdout forms the token; stderr is kept for the
// *ExternalToolError reported on a non-zero exit.
func (g GitCLI) Head(ctx context.Context, dir string) (string, error) {
	bin := g.Binary
	if bin == "" {
		bin = "git"
	}
	args := []string{"rev-parse", "HEAD"}

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		toolErr := &ExternalToolError{
			Command:  append([]string{bin}, args...),
			Dir:      dir,
			Output:   strings.TrimSpace(stdout.String() + stderr.String()),
			ExitCode: -1,
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			toolErr.ExitCode = exitErr.ExitCode()
		}
		return "", toolErr
	}

	return strings.TrimSpace(stdout.String()), nil
}

// Head opens the repository at dir (worktrees included) and returns the
// hash HEAD points at.
func (GoGit) Head(_ context.Context, dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{EnableDotGitCommonDir: true})
	if err != nil {
		return "", fmt.Errorf("failed to open repository: %w", err)
	}
	ref, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to read HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}
