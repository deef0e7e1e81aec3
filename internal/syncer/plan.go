// SPDX-License-Identifier: MPL-2.0

package syncer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/bundlesync/bundlesync/internal/revision"
	"github.com/bundlesync/bundlesync/pkg/tables"
)

type (
	// stagedFile is a source file ready to be written, relative to the
	// unit's source directory in slash form.
	stagedFile struct {
		rel  string
		data []byte
	}

	unitPlan struct {
		resolved
		files   []stagedFile
		patched bool
	}

	// plan is everything an apply run writes, computed before any write.
	plan struct {
		units  []unitPlan
		tables []*tables.Merged
	}
)

func (s *Syncer) plan(ctx context.Context, units []resolved, report *Report) (*plan, error) {
	p := &plan{units: make([]unitPlan, 0, len(units))}

	var failed []*UnitError
	for _, r := range units {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("sync canceled: %w", err)
		}
		up, errs := s.planUnit(r)
		if len(errs) > 0 {
			failed = append(failed, errs...)
			continue
		}
		report.Units[r.index].Patched = up.patched
		p.units = append(p.units, up)
	}
	if len(failed) > 0 {
		return nil, &UnitErrors{Errors: failed}
	}

	merged, err := s.planTables(units)
	if err != nil {
		return nil, err
	}
	p.tables = merged
	return p, nil
}

// planUnit reads the unit's sources and patches its entry file. Patch
// failures of several files are all reported.
func (s *Syncer) planUnit(r resolved) (unitPlan, []*UnitError) {
	u := r.unit
	up := unitPlan{resolved: r}
	fail := func(phase string, err error) []*UnitError {
		return []*UnitError{{Unit: u.ID, Phase: phase, Err: err}}
	}

	srcRoot := filepath.Join(r.result.Path, filepath.FromSlash(u.SourceDir))
	if info, err := os.Stat(srcRoot); err != nil || !info.IsDir() {
		return up, fail(PhaseRead, fmt.Errorf("%w: %s", ErrMissingSourceDir, srcRoot))
	}

	rels, err := revision.MatchFiles(os.DirFS(srcRoot), []string{s.cfg.SourceGlob})
	if err != nil {
		return up, fail(PhaseRead, err)
	}

	var errs []*UnitError
	for _, rel := range rels {
		data, err := os.ReadFile(filepath.Join(srcRoot, filepath.FromSlash(rel)))
		if err != nil {
			return up, fail(PhaseRead, err)
		}
		if u.Patch && path.Base(rel) == u.EntryFile {
			out, err := s.engine.Apply(u.ID, string(data))
			if err != nil {
				errs = append(errs, &UnitError{Unit: u.ID, Phase: PhasePatch, Err: err})
				continue
			}
			if out != string(data) {
				s.logger.Debug("patched entry file", "unit", u.ID, "file", rel)
			}
			data = []byte(out)
			up.patched = true
		}
		up.files = append(up.files, stagedFile{rel: rel, data: data})
	}
	if u.Patch && !up.patched && len(errs) == 0 {
		s.logger.Warn("entry file not found", "unit", u.ID, "file", u.EntryFile)
	}
	return up, errs
}

// planTables merges every table name shipped by at least one unit. Names only
// present in the local override directory are not generated.
func (s *Syncer) planTables(units []resolved) ([]*tables.Merged, error) {
	pattern := s.cfg.Tables.Pattern
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid table pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}

	perUnit := make([]map[string]*tables.Table, len(units))
	names := make(map[string]bool)
	for i, r := range units {
		dir := filepath.Join(r.result.Path, filepath.FromSlash(r.unit.TablesDir))
		found, err := readTables(dir, pattern)
		if err != nil {
			return nil, &UnitError{Unit: r.unit.ID, Phase: PhaseRead, Err: err}
		}
		perUnit[i] = found
		for name := range found {
			names[name] = true
		}
	}

	local, err := readTables(string(s.cfg.Resolve(s.cfg.Tables.LocalDir)), pattern)
	if err != nil {
		return nil, err
	}

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	var (
		merged []*tables.Merged
		errs   []error
	)
	for _, name := range sorted {
		contributions := make([]tables.Contribution, len(units))
		for i, r := range units {
			contributions[i] = tables.Contribution{Unit: r.unit.ID, Table: perUnit[i][name]}
		}
		m, err := tables.Merge(name, contributions, local[name], s.cfg.MergeOptions())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		merged = append(merged, m)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return merged, nil
}

// readTables parses the files in dir whose base name matches pattern. A
// missing directory holds no tables.
func readTables(dir, pattern string) (map[string]*tables.Table, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list tables in %s: %w", dir, err)
	}

	found := make(map[string]*tables.Table)
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if ok, _ := doublestar.Match(pattern, e.Name()); !ok {
			continue
		}
		t, err := tables.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		found[e.Name()] = t
	}
	return found, nil
}
