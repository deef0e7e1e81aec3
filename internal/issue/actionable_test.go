// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

var errSentinel = errors.New("sentinel")

type multiErr struct{ errs []error }

func (m *multiErr) Error() string   { return "multi" }
func (m *multiErr) Unwrap() []error { return m.errs }

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "merge tables"},
			expected: "failed to merge tables",
		},
		{
			name:     "operation with resource",
			err:      &ActionableError{Operation: "load configuration", Resource: "./bundlesync.cue"},
			expected: "failed to load configuration: ./bundlesync.cue",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "resolve unit",
				Resource:  "rbm",
				Cause:     errors.New("missing working copy"),
			},
			expected: "failed to resolve unit: rbm: missing working copy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_ErrorsIs(t *testing.T) {
	t.Parallel()

	err := NewErrorContext().
		WithOperation("sync").
		Wrap(fmt.Errorf("unit rbm: %w", errSentinel)).
		BuildError()

	if !errors.Is(err, errSentinel) {
		t.Error("errors.Is should find the wrapped sentinel")
	}
	var ae *ActionableError
	if !errors.As(err, &ae) {
		t.Fatal("errors.As should find the ActionableError")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	err := &ActionableError{
		Operation:   "load configuration",
		Resource:    "./bundlesync.cue",
		Suggestions: []string{"Create the file", "Pass --config"},
		Cause:       fmt.Errorf("outer: %w", &multiErr{errs: []error{errSentinel, errors.New("detail")}}),
	}

	short := err.Format(false)
	for _, want := range []string{"failed to load configuration", "  • Create the file", "  • Pass --config"} {
		if !strings.Contains(short, want) {
			t.Errorf("Format(false) should contain %q:\n%s", want, short)
		}
	}
	if strings.Contains(short, "Error chain") {
		t.Error("Format(false) should not include the error chain")
	}

	verbose := err.Format(true)
	for _, want := range []string{"Error chain:", "1. outer: multi", "2. multi", "3. sentinel", "4. detail"} {
		if !strings.Contains(verbose, want) {
			t.Errorf("Format(true) should contain %q:\n%s", want, verbose)
		}
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	if NewErrorContext().Build() != nil {
		t.Error("Build() without operation should return nil")
	}
	if NewErrorContext().BuildError() != nil {
		t.Error("BuildError() without operation should return nil")
	}

	cause := errors.New("boom")
	ae := NewErrorContext().
		WithOperation("write tables").
		WithResource("src/main/resources/bundles").
		WithSuggestion("one").
		WithSuggestions("two", "three").
		WithIssue(PermissionDeniedId).
		Wrap(cause).
		Build()

	if ae.Operation != "write tables" || ae.Resource != "src/main/resources/bundles" {
		t.Errorf("Build() = %+v", ae)
	}
	if len(ae.Suggestions) != 3 || !ae.HasSuggestions() {
		t.Errorf("Suggestions = %v", ae.Suggestions)
	}
	if ae.Issue != PermissionDeniedId {
		t.Errorf("Issue = %d, want %d", ae.Issue, PermissionDeniedId)
	}
	if !errors.Is(ae, cause) {
		t.Error("Build() should keep the cause")
	}
}

func TestWrapWithOperation(t *testing.T) {
	t.Parallel()

	if WrapWithOperation(nil, "x") != nil {
		t.Error("WrapWithOperation(nil) should return nil")
	}
	err := WrapWithOperation(errSentinel, "check units")
	if err.Error() != "failed to check units: sentinel" || !errors.Is(err, errSentinel) {
		t.Errorf("WrapWithOperation() = %v", err)
	}
}
