// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/bundlesync/bundlesync/internal/config"
	"github.com/bundlesync/bundlesync/internal/issue"
	"github.com/bundlesync/bundlesync/internal/patch"
	"github.com/bundlesync/bundlesync/internal/revision"
	"github.com/bundlesync/bundlesync/internal/syncer"
	"github.com/bundlesync/bundlesync/pkg/brace"
	"github.com/bundlesync/bundlesync/pkg/tables"
	"github.com/bundlesync/bundlesync/pkg/types"
)

// failureKind ties an error class to its catalog entry and remediation hints.
type failureKind struct {
	target      error
	issueID     issue.Id
	operation   string
	suggestions []string
}

const inspectSuggestion = "Inspect the entry file with 'bundlesync patch <file> --unit <id> --state'"

// failureKinds is checked in order; the first match wins.
var failureKinds = []failureKind{
	{
		target:    config.ErrConfigNotFound,
		issueID:   issue.ConfigNotFoundId,
		operation: "load configuration",
	},
	{
		target:    config.ErrConfigSchema,
		issueID:   issue.ConfigSchemaErrorId,
		operation: "load configuration",
	},
	{
		target:      revision.ErrMissingWorkingCopy,
		issueID:     issue.MissingWorkingCopyId,
		operation:   "resolve units",
		suggestions: []string{"Check the unit's local_path", "Clone the upstream repository at that path"},
	},
	{
		target:      revision.ErrNotVersionControlled,
		issueID:     issue.NotVersionControlledId,
		operation:   "resolve units",
		suggestions: []string{"Initialize a git repository in the working copy", "Or set allow_no_vcs: true for the unit"},
	},
	{
		target:      revision.ErrExternalToolFailure,
		issueID:     issue.ExternalToolFailureId,
		operation:   "resolve units",
		suggestions: []string{"Ensure git is installed and on PATH", "Or set vcs.backend to \"go-git\""},
	},
	{
		target:      revision.ErrUnknownBackend,
		issueID:     issue.ConfigSchemaErrorId,
		operation:   "load configuration",
		suggestions: []string{"Set vcs.backend to \"git\" or \"go-git\""},
	},
	{
		target:      brace.ErrUnbalancedDelimiters,
		issueID:     issue.UnbalancedDelimitersId,
		operation:   "patch entry files",
		suggestions: []string{inspectSuggestion},
	},
	{
		target:      patch.ErrAnchorMethodNotFound,
		issueID:     issue.AnchorMethodNotFoundId,
		operation:   "patch entry files",
		suggestions: []string{inspectSuggestion, "Set patch: false for units that need no patching"},
	},
	{
		target:      patch.ErrAnchorNotFound,
		issueID:     issue.AnchorNotFoundId,
		operation:   "patch entry files",
		suggestions: []string{inspectSuggestion, "Set patch: false for units that need no patching"},
	},
	{
		target:      tables.ErrMergeCollision,
		issueID:     issue.MergeCollisionId,
		operation:   "merge translation tables",
		suggestions: []string{"Align the conflicting keys upstream", "Remove differing keys from the local override directory"},
	},
	{
		target:      syncer.ErrRunLocked,
		issueID:     issue.RunLockedId,
		operation:   "sync",
		suggestions: []string{"Wait for the other bundlesync run to finish"},
	},
	{
		target:      syncer.ErrMissingSourceDir,
		operation:   "sync",
		suggestions: []string{"Check the unit's source_dir"},
	},
	{
		target:      fs.ErrPermission,
		issueID:     issue.PermissionDeniedId,
		operation:   "sync",
		suggestions: []string{"Check the permissions of the destination tree and the lock file"},
	},
}

func classify(err error) (failureKind, bool) {
	for _, k := range failureKinds {
		if errors.Is(err, k.target) {
			return k, true
		}
	}
	return failureKind{}, false
}

// toActionable returns err as an ActionableError, wrapping it with the
// operation and suggestions of its failure kind when it is not one already.
func toActionable(err error) *issue.ActionableError {
	kind, known := classify(err)

	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		if ae.Issue == 0 && known {
			linked := *ae
			linked.Issue = kind.issueID
			return &linked
		}
		return ae
	}

	ctx := issue.NewErrorContext().WithOperation("sync")
	if known {
		ctx = ctx.WithOperation(kind.operation).
			WithSuggestions(kind.suggestions...).
			WithIssue(kind.issueID)
	}
	return ctx.Wrap(err).Build()
}

// fail renders err to stderr and returns the ExitError carrying code. In
// verbose mode the matching issue catalog entry is rendered after it.
func (a *App) fail(err error, verbose bool, code types.ExitCode) error {
	ae := toActionable(err)
	fmt.Fprintln(a.stderr, ErrorStyle.Render("Error: ")+ae.Format(verbose))

	if verbose && ae.Issue != 0 {
		if entry := issue.Get(ae.Issue); entry != nil {
			rendered, renderErr := entry.Render("dark")
			if renderErr != nil {
				a.newLogger(true).Warn("failed to render issue catalog entry", "issueID", ae.Issue, "error", renderErr)
			} else {
				fmt.Fprint(a.stderr, rendered)
			}
		}
	}
	return &ExitError{Code: code, Err: err}
}
