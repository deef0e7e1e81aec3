// SPDX-License-Identifier: MPL-2.0

package patch

import "strings"

// State describes which patch results are already present in a text.
// It is recomputed from the text on demand and never stored.
type State struct {
	ImportPresent    bool
	FlagDeclared     bool
	ReferencePresent bool
	MethodDeclared   bool
	// GuardAnchorPresent reports whether a null-check guard exists at all;
	// GuardPresent is only meaningful when it does.
	GuardAnchorPresent bool
	GuardPresent       bool
}

// Applied reports whether Apply would leave the text unchanged.
func (s State) Applied() bool {
	return s.ImportPresent && s.FlagDeclared && s.ReferencePresent && s.MethodDeclared &&
		(!s.GuardAnchorPresent || s.GuardPresent)
}

// Inspect computes the State of text under the engine's profile.
func (e *Engine) Inspect(text string) State {
	s := State{
		ImportPresent:    strings.Contains(text, e.profile.Import),
		FlagDeclared:     e.flagDeclRE.MatchString(text),
		ReferencePresent: strings.Contains(text, e.reference()),
		MethodDeclared:   e.methodDeclRE.MatchString(text),
	}
	if end, ok := e.findGuardAnchor(text); ok {
		s.GuardAnchorPresent = true
		s.GuardPresent = e.guardInWindow(text, end)
	}
	return s
}
