// SPDX-License-Identifier: MPL-2.0

// Package tables reads, merges and renders line-oriented key=value
// translation tables (one file per locale, e.g. bundle_de.properties).
package tables

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Table is a named key/value mapping. Name is the file name the table was
// read from and is the unit of merging: tables merge only with tables of the
// same name.
type Table struct {
	Name    string
	Entries map[string]string
}

// NewTable returns an empty table.
func NewTable(name string) *Table {
	return &Table{Name: name, Entries: make(map[string]string)}
}

// Parse reads the key=value format:
//   - blank lines and lines whose first non-blank character is '#' are skipped
//   - the first '=' separates key from value; lines without '=' are skipped
//   - keys are trimmed, values are kept verbatim (including further '=')
//   - a trailing '\r' is dropped
//   - a later duplicate key replaces an earlier one
func Parse(name, text string) *Table {
	t := NewTable(name)
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(strings.TrimLeft(line, " \t"), "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		t.Entries[k] = v
	}
	return t
}

// ReadFile parses the table stored at path. The table is named after the
// file's base name.
func ReadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read table: %w", err)
	}
	return Parse(filepath.Base(path), string(data)), nil
}

// Keys returns the table's keys in sorted order.
func (t *Table) Keys() []string {
	keys := make([]string, 0, len(t.Entries))
	for k := range t.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.Entries) }
