// SPDX-License-Identifier: MPL-2.0

package syncer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gofrs/flock"

	"github.com/bundlesync/bundlesync/internal/lockfile"
	"github.com/bundlesync/bundlesync/internal/revision"
	"github.com/bundlesync/bundlesync/pkg/tables"
)

// RunLockSuffix is appended to the lock file path to name the run lock.
const RunLockSuffix = ".run"

func (s *Syncer) write(p *plan, lock *lockfile.Record, lockPath string, report *Report) error {
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return &WriteError{Stale: p.unitIDs(0), Err: err}
	}

	runLock := flock.New(lockPath + RunLockSuffix)
	locked, err := runLock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("%w: %s is held", ErrRunLocked, runLock.Path())
	}
	defer func() {
		if err := runLock.Unlock(); err != nil {
			s.logger.Debug("run lock release failed", "error", err)
		}
	}()

	for i, up := range p.units {
		if err := s.writeUnit(up); err != nil {
			stale := p.unitIDs(i + 1)
			s.logger.Error("unit left incomplete", "unit", up.unit.ID, "error", err)
			for _, id := range stale {
				s.logger.Warn("unit left stale", "unit", id)
			}
			return &WriteError{Rewritten: p.unitIDs(0)[:i], Partial: up.unit.ID, Stale: stale, Err: err}
		}
		report.Units[up.index].Files = len(up.files)
		s.logger.Info("copied", "unit", up.unit.ID, "files", len(up.files), "patched", up.patched)
	}
	rewritten := p.unitIDs(0)

	if err := s.writeTables(p.tables, report); err != nil {
		return &WriteError{Rewritten: rewritten, Err: err}
	}

	for _, up := range p.units {
		lock.Set(up.unit.ID, lockfile.Entry{Head: string(up.result.Token), LocalPath: up.result.Path})
	}
	report.DroppedLocks = lock.Retain(s.cfg.UnitIDs())
	for _, id := range report.DroppedLocks {
		s.logger.Info("dropped lock entry", "unit", id)
	}
	lock.Generated = s.clock.Now().UTC().Truncate(time.Second)
	if err := lock.Save(lockPath); err != nil {
		return &WriteError{Rewritten: rewritten, Err: err}
	}
	report.LockFile = lockPath
	report.Generated = lock.Generated
	s.logger.Info("wrote lock file", "path", lockPath, "units", len(p.units))
	return nil
}

// writeUnit replaces the files matching the source glob in the unit's
// destination directory with the staged files.
func (s *Syncer) writeUnit(up unitPlan) error {
	dest := string(s.cfg.Resolve(up.unit.SourceDir))

	if info, err := os.Stat(dest); err == nil && info.IsDir() {
		old, err := revision.MatchFiles(os.DirFS(dest), []string{s.cfg.SourceGlob})
		if err != nil {
			return err
		}
		for _, rel := range old {
			if err := os.Remove(filepath.Join(dest, filepath.FromSlash(rel))); err != nil {
				return fmt.Errorf("failed to remove %s: %w", rel, err)
			}
		}
	}

	for _, f := range up.files {
		target := filepath.Join(dest, filepath.FromSlash(f.rel))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(target, f.data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.rel, err)
		}
	}
	return nil
}

// writeTables writes every merged table and removes previously generated
// tables that no unit ships anymore. Hand-written files are never removed.
func (s *Syncer) writeTables(merged []*tables.Merged, report *Report) error {
	outDir := string(s.cfg.Resolve(s.cfg.Tables.Dir))
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	written := make(map[string]bool, len(merged))
	for _, m := range merged {
		if err := os.WriteFile(filepath.Join(outDir, m.Name), m.Render(), 0o644); err != nil {
			return fmt.Errorf("failed to write table %s: %w", m.Name, err)
		}
		written[m.Name] = true
		report.Tables = append(report.Tables, TableReport{Name: m.Name, Keys: len(m.Entries), Sources: m.Sources})
		s.logger.Info("merged table", "table", m.Name, "keys", len(m.Entries))
	}

	removed, err := pruneTables(outDir, s.cfg.Tables.Pattern, written)
	if err != nil {
		return err
	}
	for _, name := range removed {
		s.logger.Info("removed stale table", "table", name)
	}
	report.RemovedTables = removed
	return nil
}

func pruneTables(dir, pattern string, keep map[string]bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, e := range entries {
		name := e.Name()
		if keep[name] || !e.Type().IsRegular() {
			continue
		}
		if ok, _ := doublestar.Match(pattern, name); !ok {
			continue
		}
		target := filepath.Join(dir, name)
		data, err := os.ReadFile(target)
		if err != nil {
			return removed, err
		}
		if !tables.IsGenerated(data) {
			continue
		}
		if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, err
		}
		removed = append(removed, name)
	}
	return removed, nil
}

func (p *plan) unitIDs(from int) []string {
	ids := make([]string, 0, len(p.units)-from)
	for _, up := range p.units[from:] {
		ids = append(ids, up.unit.ID)
	}
	return ids
}
