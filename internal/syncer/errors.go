// SPDX-License-Identifier: MPL-2.0

package syncer

import (
	"errors"
	"fmt"
	"strings"
)

// Phases a UnitError can be attributed to.
const (
	PhaseResolve = "resolve"
	PhaseRead    = "read"
	PhasePatch   = "patch"
)

var (
	// ErrMissingSourceDir is returned when a unit's source directory does not
	// exist inside its working copy.
	ErrMissingSourceDir = errors.New("source directory not found")

	// ErrRunLocked is returned when another apply run holds the run lock.
	ErrRunLocked = errors.New("another sync is in progress")

	// ErrWriteFailed is the sentinel wrapped by WriteError.
	ErrWriteFailed = errors.New("write phase failed")
)

type (
	// UnitError attributes a failure to one unit and phase.
	UnitError struct {
		Unit  string
		Phase string
		Err   error
	}

	// UnitErrors collects the failures of several units. Apply runs report
	// every patch failure at once instead of stopping at the first one.
	UnitErrors struct {
		Errors []*UnitError
	}

	// WriteError reports a failure in the write phase. Rewritten lists the
	// units whose sources were already replaced. Partial names the unit whose
	// destination was being replaced when the failure hit; it is incomplete.
	// Stale lists the units that still hold their previous sources.
	WriteError struct {
		Rewritten []string
		Partial   string
		Stale     []string
		Err       error
	}
)

func (e *UnitError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Unit, e.Phase, e.Err)
}

func (e *UnitError) Unwrap() error { return e.Err }

func (e *UnitErrors) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d units failed:", len(e.Errors))
	for _, ue := range e.Errors {
		sb.WriteString("\n  ")
		sb.WriteString(ue.Error())
	}
	return sb.String()
}

// Unwrap exposes every unit failure to errors.Is and errors.As.
func (e *UnitErrors) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, ue := range e.Errors {
		errs[i] = ue
	}
	return errs
}

// Units returns the IDs of the failed units.
func (e *UnitErrors) Units() []string {
	ids := make([]string, len(e.Errors))
	for i, ue := range e.Errors {
		ids[i] = ue.Unit
	}
	return ids
}

func (e *WriteError) Error() string {
	msg := fmt.Sprintf("write phase failed: %v", e.Err)
	if len(e.Rewritten) > 0 {
		msg += fmt.Sprintf(" (rewritten: %s)", strings.Join(e.Rewritten, ", "))
	}
	if e.Partial != "" {
		msg += fmt.Sprintf(" (incomplete: %s)", e.Partial)
	}
	if len(e.Stale) > 0 {
		msg += fmt.Sprintf(" (stale: %s)", strings.Join(e.Stale, ", "))
	}
	return msg
}

func (e *WriteError) Unwrap() []error { return []error{ErrWriteFailed, e.Err} }
