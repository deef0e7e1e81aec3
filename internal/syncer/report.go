// SPDX-License-Identifier: MPL-2.0

package syncer

import (
	"time"

	"github.com/bundlesync/bundlesync/internal/revision"
)

// Mode selects what a run does after resolving the units.
type Mode int

const (
	// ModeApply copies sources, merges tables and rewrites the lock file.
	ModeApply Mode = iota
	// ModeCheck only reports which units changed.
	ModeCheck
)

// Status classifies a unit against the lock file.
type Status string

const (
	// StatusChanged means the unit has no lock entry or its token differs.
	StatusChanged Status = "changed"
	// StatusUnchanged means the token equals the recorded head.
	StatusUnchanged Status = "unchanged"
)

type (
	// Options tunes a run.
	Options struct {
		Mode Mode
		// Force is recorded in the report; runs always rewrite everything.
		Force bool
	}

	// UnitReport is the outcome for one unit.
	UnitReport struct {
		ID   string
		Name string
		// Path is the resolved working-copy path.
		Path  string
		Token revision.Token
		// Previous is the head recorded in the lock file, empty when absent.
		Previous string
		Status   Status
		VCS      bool
		// Files counts the source files written in apply mode.
		Files int
		// Patched is true when an entry file was run through the patch engine.
		Patched bool
	}

	// TableReport describes one written translation table.
	TableReport struct {
		Name    string
		Keys    int
		Sources []string
	}

	// Report summarizes a run.
	Report struct {
		Mode  Mode
		Force bool
		Units []UnitReport
		// The remaining fields are only populated by apply runs.
		Tables        []TableReport
		RemovedTables []string
		DroppedLocks  []string
		LockFile      string
		Generated     time.Time
	}
)

func (m Mode) String() string {
	if m == ModeCheck {
		return "check"
	}
	return "apply"
}

// Changed returns the units classified as changed.
func (r *Report) Changed() []UnitReport {
	var out []UnitReport
	for _, u := range r.Units {
		if u.Status == StatusChanged {
			out = append(out, u)
		}
	}
	return out
}
