// SPDX-License-Identifier: MPL-2.0

package revision

// ContentPrefix marks tokens computed from file contents rather than read
// from version control.
const ContentPrefix = "nogit-"

// EmptyToken is the content token of a working copy with no tracked files.
// It can never collide with a real content hash.
const EmptyToken Token = ContentPrefix + "empty"

// shortLen is the display length of a token.
const shortLen = 10

// Token is an opaque identifier of a unit's tracked content at a point in
// time. Two tokens compare equal iff the tracked content is identical.
type Token string

// String returns the full token.
func (t Token) String() string { return string(t) }

// Short returns the first characters of the token for display only.
func (t Token) Short() string {
	if len(t) <= shortLen {
		return string(t)
	}
	return string(t[:shortLen])
}

// IsContentHash reports whether the token was computed from file contents.
func (t Token) IsContentHash() bool {
	return len(t) >= len(ContentPrefix) && string(t[:len(ContentPrefix)]) == ContentPrefix
}
