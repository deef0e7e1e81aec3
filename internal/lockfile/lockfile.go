// SPDX-License-Identifier: MPL-2.0

// Package lockfile reads and writes the record of each unit's last synced
// revision token.
package lockfile

import (
	_ "embed"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bundlesync/bundlesync/pkg/cueutil"
)

// SchemaVersion is the lock format version written by Save.
const SchemaVersion = 1

//go:embed lock_schema.cue
var lockSchema []byte

// ErrInvalidLockFile is returned when a lock file fails schema validation.
var ErrInvalidLockFile = errors.New("invalid lock file")

type (
	// Record is the persisted lock state. The zero time in Generated means
	// the record was never saved.
	Record struct {
		Schema    int
		Generated time.Time
		Units     map[string]Entry
	}

	// Entry is one unit's last synced state.
	Entry struct {
		Head      string `json:"head"`
		LocalPath string `json:"local_path"`
	}

	// InvalidLockFileError wraps a schema or syntax failure with the file path.
	InvalidLockFileError struct {
		Path string
		Err  error
	}

	lockDoc struct {
		Schema         int                    `json:"schema"`
		Generated      string                 `json:"generated,omitempty"`
		Units          map[string]Entry       `json:"units"`
		Mods           map[string]legacyEntry `json:"mods,omitempty"`
		GeneratedAtUTC *string                `json:"generatedAtUtc,omitempty"`
	}

	legacyEntry struct {
		Head      string `json:"head"`
		LocalPath string `json:"localPath"`
	}
)

// Error implements the error interface.
func (e *InvalidLockFileError) Error() string {
	return fmt.Sprintf("invalid lock file %s: %v", e.Path, e.Err)
}

// Unwrap returns both ErrInvalidLockFile and the underlying cause.
func (e *InvalidLockFileError) Unwrap() []error { return []error{ErrInvalidLockFile, e.Err} }

// New returns an empty record at the current schema version.
func New() *Record {
	return &Record{Schema: SchemaVersion, Units: make(map[string]Entry)}
}

// Load reads the lock file at path. A missing file yields New().
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(), nil
		}
		return nil, fmt.Errorf("failed to read lock file: %w", err)
	}
	return Parse(data, path)
}

// Parse decodes lock file content. Both the CUE form written by Save and
// JSON are accepted.
func Parse(data []byte, filename string) (*Record, error) {
	result, err := cueutil.ParseAndDecode[lockDoc](lockSchema, data, "#Lock", cueutil.WithFilename(filename))
	if err != nil {
		return nil, &InvalidLockFileError{Path: filename, Err: err}
	}
	doc := result.Value

	rec := &Record{Schema: doc.Schema, Units: make(map[string]Entry, len(doc.Units))}
	maps.Copy(rec.Units, doc.Units)

	generated := doc.Generated
	if generated == "" && doc.GeneratedAtUTC != nil {
		generated = *doc.GeneratedAtUTC
	}
	if generated != "" {
		ts, err := time.Parse(time.RFC3339, generated)
		if err != nil {
			return nil, &InvalidLockFileError{Path: filename, Err: fmt.Errorf("generated: %w", err)}
		}
		rec.Generated = ts
	}

	for id, legacy := range doc.Mods {
		if _, ok := rec.Units[id]; ok {
			continue
		}
		rec.Units[id] = Entry{Head: legacy.Head, LocalPath: legacy.LocalPath}
	}

	return rec, nil
}

// Head returns the recorded head of a unit.
func (r *Record) Head(id string) (string, bool) {
	e, ok := r.Units[id]
	return e.Head, ok
}

// Set records the state of a unit.
func (r *Record) Set(id string, e Entry) {
	if r.Units == nil {
		r.Units = make(map[string]Entry)
	}
	r.Units[id] = e
}

// Retain drops every unit not in ids and returns the dropped IDs, sorted.
func (r *Record) Retain(ids []string) []string {
	var dropped []string
	for id := range r.Units {
		if !slices.Contains(ids, id) {
			dropped = append(dropped, id)
		}
	}
	for _, id := range dropped {
		delete(r.Units, id)
	}
	slices.Sort(dropped)
	return dropped
}

// IDs returns the recorded unit IDs in sorted order.
func (r *Record) IDs() []string {
	return slices.Sorted(maps.Keys(r.Units))
}

// Save writes the record to path in CUE format, stamping the current schema
// version. The write is atomic: a temp file is renamed over path.
func (r *Record) Save(path string) error {
	r.Schema = SchemaVersion
	content := r.Render()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, content, 0o644); err != nil {
		return fmt.Errorf("failed to write lock file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath) // Best-effort cleanup of temp file
		return fmt.Errorf("failed to rename lock file: %w", err)
	}
	return nil
}

// Render returns the CUE form of the record with units sorted by ID.
func (r *Record) Render() []byte {
	var sb strings.Builder

	sb.WriteString("// bundlesync lock file - records the last synced revision of each unit\n")
	sb.WriteString("// DO NOT EDIT MANUALLY\n\n")

	fmt.Fprintf(&sb, "schema: %d\n", r.Schema)
	if !r.Generated.IsZero() {
		fmt.Fprintf(&sb, "generated: %q\n", r.Generated.UTC().Truncate(time.Second).Format(time.RFC3339))
	}
	sb.WriteString("\n")

	if len(r.Units) == 0 {
		sb.WriteString("units: {}\n")
		return []byte(sb.String())
	}

	sb.WriteString("units: {\n")
	for _, id := range r.IDs() {
		e := r.Units[id]
		fmt.Fprintf(&sb, "\t%q: {\n", id)
		fmt.Fprintf(&sb, "\t\thead:       %q\n", e.Head)
		fmt.Fprintf(&sb, "\t\tlocal_path: %q\n", e.LocalPath)
		sb.WriteString("\t}\n")
	}
	sb.WriteString("}\n")

	return []byte(sb.String())
}
