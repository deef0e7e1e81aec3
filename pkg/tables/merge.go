// SPDX-License-Identifier: MPL-2.0

package tables

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// LocalOrigin is the origin recorded for entries from the local override table.
	LocalOrigin = "local"

	// DefaultMaxReported bounds the collisions listed in a MergeError.
	DefaultMaxReported = 50

	headerTitle = "# Auto-merged by bundlesync"
)

// ErrMergeCollision is the sentinel error wrapped by MergeError.
var ErrMergeCollision = errors.New("merge collision")

type (
	// Contribution is one unit's version of a named table. Table is nil when
	// the unit does not ship a table with that name.
	Contribution struct {
		Unit  string
		Table *Table
	}

	// MergeOptions tunes Merge. The zero value is usable.
	MergeOptions struct {
		// MaxReported caps the collisions kept in a MergeError
		// (DefaultMaxReported when <= 0).
		MaxReported int
	}

	// Merged is the deterministic result of merging one table name.
	Merged struct {
		Name    string
		Entries map[string]string
		// Origins maps each key to the unit that first supplied it, or LocalOrigin.
		Origins map[string]string
		// Sources lists the unit IDs of all contributions in fold order.
		Sources []string
	}

	// Collision describes two sources disagreeing on one key.
	Collision struct {
		Table        string
		Key          string
		FirstOrigin  string
		FirstValue   string
		SecondOrigin string
		SecondValue  string
	}

	// MergeError lists the collisions found while merging one table.
	// Collisions holds at most MaxReported entries; Total counts all of them.
	MergeError struct {
		Table      string
		Collisions []Collision
		Total      int
	}
)

// String renders the collision in the form used by MergeError.
func (c Collision) String() string {
	return fmt.Sprintf("%s: key %q differs between %s (%q) and %s (%q)",
		c.Table, c.Key, c.FirstOrigin, c.FirstValue, c.SecondOrigin, c.SecondValue)
}

// Error implements the error interface.
func (e *MergeError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d merge collision(s) in %s", e.Total, e.Table)
	for _, c := range e.Collisions {
		sb.WriteString("\n  ")
		sb.WriteString(c.String())
	}
	if hidden := e.Total - len(e.Collisions); hidden > 0 {
		fmt.Fprintf(&sb, "\n  ... and %d more", hidden)
	}
	return sb.String()
}

// Unwrap returns ErrMergeCollision for errors.Is() compatibility.
func (e *MergeError) Unwrap() error { return ErrMergeCollision }

// Merge folds contributions in order, then the optional local table.
//
// A key seen twice with the same value is kept once with its first origin.
// A key seen twice with different values is a collision. All upstream
// collisions are collected before failing. The local table may add keys and
// may repeat upstream values, but a differing local value is a collision
// too; local never silently wins.
func Merge(name string, contributions []Contribution, local *Table, opts MergeOptions) (*Merged, error) {
	maxReported := opts.MaxReported
	if maxReported <= 0 {
		maxReported = DefaultMaxReported
	}

	m := &Merged{
		Name:    name,
		Entries: make(map[string]string),
		Origins: make(map[string]string),
	}
	collector := &MergeError{Table: name}

	for _, c := range contributions {
		m.Sources = append(m.Sources, c.Unit)
		if c.Table == nil {
			continue
		}
		m.fold(c.Table, c.Unit, collector, maxReported)
	}
	if collector.Total > 0 {
		return nil, collector
	}

	if local != nil {
		m.fold(local, LocalOrigin, collector, maxReported)
		if collector.Total > 0 {
			return nil, collector
		}
	}

	return m, nil
}

// fold adds t's entries in sorted key order so collision listings are stable.
func (m *Merged) fold(t *Table, origin string, collector *MergeError, maxReported int) {
	for _, k := range t.Keys() {
		v := t.Entries[k]
		prev, seen := m.Entries[k]
		switch {
		case !seen:
			m.Entries[k] = v
			m.Origins[k] = origin
		case prev == v:
		default:
			collector.Total++
			if len(collector.Collisions) < maxReported {
				collector.Collisions = append(collector.Collisions, Collision{
					Table:        m.Name,
					Key:          k,
					FirstOrigin:  m.Origins[k],
					FirstValue:   prev,
					SecondOrigin: origin,
					SecondValue:  v,
				})
			}
		}
	}
}

// Keys returns the merged keys in sorted order.
func (m *Merged) Keys() []string {
	return (&Table{Entries: m.Entries}).Keys()
}

// Render produces the byte-stable file form: a header naming the sources,
// a blank line, then one key=value line per entry sorted by key.
func (m *Merged) Render() []byte {
	var sb strings.Builder
	sb.WriteString(headerTitle)
	sb.WriteString("\n# Sources: ")
	sb.WriteString(strings.Join(m.Sources, " + "))
	sb.WriteString("\n\n")
	for _, k := range m.Keys() {
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(m.Entries[k])
		sb.WriteByte('\n')
	}
	return []byte(sb.String())
}

// IsGenerated reports whether data starts with the header written by Render.
func IsGenerated(data []byte) bool {
	return strings.HasPrefix(string(data), headerTitle+"\n")
}
