// SPDX-License-Identifier: MPL-2.0

// Package brace locates balanced curly-brace regions in C-family source text.
//
// The scanner is deliberately not a parser: it only understands the two
// literal forms that can legally contain an unbalanced brace, double-quoted
// strings and single-quoted character literals, including backslash escapes.
package brace

import (
	"errors"
	"fmt"
)

var (
	// ErrUnbalancedDelimiters is returned when the text ends before the
	// opening brace is closed.
	ErrUnbalancedDelimiters = errors.New("unbalanced delimiters")
	// ErrNotOpenBrace is returned when the scan does not start on '{'.
	ErrNotOpenBrace = errors.New("scan must start at an opening brace")
)

// UnbalancedError reports where an unterminated region started and how deep
// the scanner still was when the text ran out.
type UnbalancedError struct {
	Open  int
	Depth int
}

// Error implements the error interface.
func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("brace at offset %d is never closed (depth %d at end of text)", e.Open, e.Depth)
}

// Unwrap returns ErrUnbalancedDelimiters for errors.Is() compatibility.
func (e *UnbalancedError) Unwrap() error { return ErrUnbalancedDelimiters }

// MatchBrace returns the offset of the '}' that closes the '{' at open.
//
// Braces inside "..." and '...' literals are ignored. Inside a literal a
// backslash escapes exactly the next byte, so `"a\"}b"` is one literal.
func MatchBrace(text string, open int) (int, error) {
	if open < 0 || open >= len(text) || text[open] != '{' {
		return -1, fmt.Errorf("offset %d: %w", open, ErrNotOpenBrace)
	}

	depth := 0
	inString := false
	inChar := false
	escaped := false

	for i := open; i < len(text); i++ {
		ch := text[i]
		switch {
		case inString || inChar:
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case inString && ch == '"':
				inString = false
			case inChar && ch == '\'':
				inChar = false
			}
		case ch == '"':
			inString = true
		case ch == '\'':
			inChar = true
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}

	return -1, &UnbalancedError{Open: open, Depth: depth}
}

// Body returns the text strictly between the brace at open and its match,
// along with the closing offset.
func Body(text string, open int) (string, int, error) {
	closeIdx, err := MatchBrace(text, open)
	if err != nil {
		return "", -1, err
	}
	return text[open+1 : closeIdx], closeIdx, nil
}
