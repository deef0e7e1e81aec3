// SPDX-License-Identifier: MPL-2.0

package patch

import (
	"errors"
	"fmt"
)

// Step names reported in Error.Step.
const (
	StepImport  = "import"
	StepFlag    = "flag"
	StepClosure = "closure"
	StepMethod  = "method"
	StepGuard   = "guard"
)

var (
	// ErrAnchorNotFound is returned when a required anchor shape is absent.
	ErrAnchorNotFound = errors.New("anchor not found")
	// ErrAnchorMethodNotFound is returned when the method the generated
	// method is inserted after cannot be found.
	ErrAnchorMethodNotFound = errors.New("anchor method not found")
)

// Error ties a patch failure to the unit, the step and the anchor involved.
// Err wraps ErrAnchorNotFound, ErrAnchorMethodNotFound or
// brace.ErrUnbalancedDelimiters.
type Error struct {
	Unit   string
	Step   string
	Anchor string
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] patch %s step: %v: %s", e.Unit, e.Step, e.Err, e.Anchor)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }
