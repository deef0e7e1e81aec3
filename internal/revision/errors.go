// SPDX-License-Identifier: MPL-2.0

package revision

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingWorkingCopy is returned when a unit's local path does not exist.
	ErrMissingWorkingCopy = errors.New("missing working copy")
	// ErrNotVersionControlled is returned when a unit's working copy lacks
	// version-control metadata and the unit does not allow that.
	ErrNotVersionControlled = errors.New("working copy is not version controlled")
	// ErrExternalToolFailure is the sentinel error wrapped by ExternalToolError.
	ErrExternalToolFailure = errors.New("external tool failed")
)

type (
	// WorkingCopyError ties a resolution failure to the unit and path involved.
	WorkingCopyError struct {
		Unit string
		Path string
		Err  error
	}

	// ExternalToolError carries the invoked command and its output.
	// ExitCode is -1 when the process could not be started.
	ExternalToolError struct {
		Command  []string
		Dir      string
		Output   string
		ExitCode int
		Err      error
	}
)

// Error implements the error interface.
func (e *WorkingCopyError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Unit, e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *WorkingCopyError) Unwrap() error { return e.Err }

// Error implements the error interface.
func (e *ExternalToolError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "command failed (%d): %s", e.ExitCode, strings.Join(e.Command, " "))
	if e.Dir != "" {
		fmt.Fprintf(&sb, " (in %s)", e.Dir)
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		sb.WriteString("\n")
		sb.WriteString(out)
	} else if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap returns ErrExternalToolFailure together with the process error.
func (e *ExternalToolError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrExternalToolFailure}
	}
	return []error{ErrExternalToolFailure, e.Err}
}
