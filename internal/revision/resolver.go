// SPDX-License-Identifier: MPL-2.0

package revision

import (
	"context"
	"os"
	"path/filepath"
)

type (
	// Target is the slice of a unit's configuration the resolver needs.
	Target struct {
		ID         string
		Path       string
		AllowNoVCS bool
	}

	// Resolver turns working copies into revision tokens.
	Resolver struct {
		heads   HeadReader
		tracked []string
	}

	// Result is the outcome of resolving one target.
	Result struct {
		Token Token
		// Path is the absolute working-copy path.
		Path string
		// VCS is true when the token is a version-control head.
		VCS bool
	}
)

// NewResolver creates a resolver. A nil heads reader selects GitCLI and an
// empty tracked list selects DefaultTrackedPatterns.
func NewResolver(heads HeadReader, tracked []string) *Resolver {
	if heads == nil {
		heads = GitCLI{}
	}
	if len(tracked) == 0 {
		tracked = DefaultTrackedPatterns
	}
	return &Resolver{heads: heads, tracked: tracked}
}

// Resolve computes the token of one working copy. Failures are returned as
// *WorkingCopyError wrapping ErrMissingWorkingCopy, ErrNotVersionControlled,
// or the head reader's error.
func (r *Resolver) Resolve(ctx context.Context, t Target) (*Result, error) {
	abs, err := filepath.Abs(t.Path)
	if err != nil {
		return nil, &WorkingCopyError{Unit: t.ID, Path: t.Path, Err: err}
	}

	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, &WorkingCopyError{Unit: t.ID, Path: abs, Err: ErrMissingWorkingCopy}
	}

	if HasVCS(abs) {
		head, err := r.heads.Head(ctx, abs)
		if err != nil {
			return nil, &WorkingCopyError{Unit: t.ID, Path: abs, Err: err}
		}
		return &Result{Token: Token(head), Path: abs, VCS: true}, nil
	}

	if !t.AllowNoVCS {
		return nil, &WorkingCopyError{Unit: t.ID, Path: abs, Err: ErrNotVersionControlled}
	}

	token, err := ContentHash(abs, r.tracked)
	if err != nil {
		return nil, &WorkingCopyError{Unit: t.ID, Path: abs, Err: err}
	}
	return &Result{Token: token, Path: abs}, nil
}

// HasVCS reports whether dir itself carries git metadata: a .git directory,
// or a .git file as written for linked worktrees. Parent directories are not
// consulted, so a working copy nested in another repository still needs its
// own metadata.
func HasVCS(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ".git"))
	if err != nil {
		return false
	}
	return info.IsDir() || info.Mode().IsRegular()
}
