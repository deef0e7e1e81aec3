// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/bundlesync/bundlesync/internal/config"
	"github.com/bundlesync/bundlesync/internal/issue"
	"github.com/bundlesync/bundlesync/internal/patch"
	"github.com/bundlesync/bundlesync/internal/revision"
	"github.com/bundlesync/bundlesync/internal/syncer"
	"github.com/bundlesync/bundlesync/pkg/brace"
	"github.com/bundlesync/bundlesync/pkg/tables"
	"github.com/bundlesync/bundlesync/pkg/types"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want issue.Id
	}{
		{"config not found", fmt.Errorf("%w: x", config.ErrConfigNotFound), issue.ConfigNotFoundId},
		{"config schema", &config.ConfigSchemaError{Path: "x", Err: errors.New("bad")}, issue.ConfigSchemaErrorId},
		{"missing working copy", &revision.WorkingCopyError{Unit: "a", Err: revision.ErrMissingWorkingCopy}, issue.MissingWorkingCopyId},
		{"not version controlled", &revision.WorkingCopyError{Unit: "a", Err: revision.ErrNotVersionControlled}, issue.NotVersionControlledId},
		{"external tool", &revision.ExternalToolError{Command: []string{"git", "rev-parse", "HEAD"}, ExitCode: 128}, issue.ExternalToolFailureId},
		{"unbalanced", &patch.Error{Unit: "a", Step: patch.StepClosure, Err: &brace.UnbalancedError{Open: 3, Depth: 1}}, issue.UnbalancedDelimitersId},
		{"anchor", &patch.Error{Unit: "a", Step: patch.StepFlag, Err: patch.ErrAnchorNotFound}, issue.AnchorNotFoundId},
		{"anchor method", &patch.Error{Unit: "a", Step: patch.StepMethod, Err: patch.ErrAnchorMethodNotFound}, issue.AnchorMethodNotFoundId},
		{"collision", &tables.MergeError{Table: "bundle.properties", Total: 1}, issue.MergeCollisionId},
		{"run locked", fmt.Errorf("%w: held", syncer.ErrRunLocked), issue.RunLockedId},
		{"permission", &fs.PathError{Op: "open", Path: "x", Err: fs.ErrPermission}, issue.PermissionDeniedId},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			kind, ok := classify(tt.err)
			if !ok {
				t.Fatalf("classify(%v) found no kind", tt.err)
			}
			if kind.issueID != tt.want {
				t.Errorf("issue = %d, want %d", kind.issueID, tt.want)
			}
			if issue.Get(kind.issueID) == nil {
				t.Errorf("issue %d has no catalog entry", kind.issueID)
			}
		})
	}

	if _, ok := classify(errors.New("something else")); ok {
		t.Error("classify() matched an unknown error")
	}
}

func TestToActionable(t *testing.T) {
	t.Parallel()

	t.Run("wraps known errors", func(t *testing.T) {
		t.Parallel()

		cause := fmt.Errorf("%w: held", syncer.ErrRunLocked)
		ae := toActionable(cause)
		if ae.Operation != "sync" || ae.Issue != issue.RunLockedId || !ae.HasSuggestions() {
			t.Errorf("toActionable() = %+v", ae)
		}
		if !errors.Is(ae, syncer.ErrRunLocked) {
			t.Error("actionable error does not wrap its cause")
		}
	})

	t.Run("keeps existing actionable errors", func(t *testing.T) {
		t.Parallel()

		orig := issue.NewErrorContext().
			WithOperation("load configuration").
			Wrap(fmt.Errorf("%w: bundlesync.cue", config.ErrConfigNotFound)).
			Build()
		ae := toActionable(orig)
		if ae.Operation != "load configuration" || ae.Issue != issue.ConfigNotFoundId {
			t.Errorf("toActionable() = %+v", ae)
		}
		if orig.Issue != 0 {
			t.Error("toActionable() modified its argument")
		}
	})

	t.Run("unknown errors", func(t *testing.T) {
		t.Parallel()

		ae := toActionable(errors.New("disk on fire"))
		if ae.Error() != "failed to sync: disk on fire" || ae.Issue != 0 {
			t.Errorf("toActionable() = %q (issue %d)", ae.Error(), ae.Issue)
		}
	})
}

func TestFail(t *testing.T) {
	t.Parallel()

	var stderr bytes.Buffer
	app := NewApp(Dependencies{Stdout: &bytes.Buffer{}, Stderr: &stderr})

	cause := &revision.WorkingCopyError{Unit: "alpha", Path: "/nowhere", Err: revision.ErrMissingWorkingCopy}
	err := app.fail(cause, false, types.ExitFailure)

	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != types.ExitFailure {
		t.Fatalf("fail() = %v, want *ExitError with code 1", err)
	}
	out := stderr.String()
	for _, want := range []string{"failed to resolve units", "[alpha] /nowhere", "Check the unit's local_path"} {
		if !strings.Contains(out, want) {
			t.Errorf("stderr missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Error chain:") {
		t.Errorf("non-verbose output contains the error chain:\n%s", out)
	}
}
