// SPDX-License-Identifier: MPL-2.0

package syncer

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bundlesync/bundlesync/internal/config"
	"github.com/bundlesync/bundlesync/internal/lockfile"
	"github.com/bundlesync/bundlesync/internal/patch"
	"github.com/bundlesync/bundlesync/internal/revision"
)

type (
	// Clock supplies the lock file timestamp.
	Clock interface {
		Now() time.Time
	}

	// Option configures a Syncer.
	Option func(*Syncer)

	// Syncer runs synchronizations for one configuration.
	Syncer struct {
		cfg      *config.Config
		heads    revision.HeadReader
		resolver *revision.Resolver
		engine   *patch.Engine
		logger   *log.Logger
		clock    Clock
	}

	systemClock struct{}

	// resolved pairs a unit with its resolution result and report slot.
	resolved struct {
		unit   config.Unit
		result *revision.Result
		index  int
	}
)

func (systemClock) Now() time.Time { return time.Now() }

// WithLogger sets the logger. The default discards all output.
func WithLogger(l *log.Logger) Option {
	return func(s *Syncer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces the wall clock used for the lock timestamp.
func WithClock(c Clock) Option {
	return func(s *Syncer) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithHeadReader overrides the head reader selected by vcs.backend.
func WithHeadReader(h revision.HeadReader) Option {
	return func(s *Syncer) { s.heads = h }
}

// New creates a Syncer for a validated configuration.
func New(cfg *config.Config, opts ...Option) (*Syncer, error) {
	s := &Syncer{
		cfg:    cfg,
		logger: log.New(io.Discard),
		clock:  systemClock{},
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.heads == nil {
		heads, err := revision.NewHeadReader(cfg.VCS.Backend)
		if err != nil {
			return nil, err
		}
		s.heads = heads
	}
	s.resolver = revision.NewResolver(s.heads, cfg.Revision.Tracked)

	engine, err := patch.NewEngine(cfg.PatchProfile())
	if err != nil {
		return nil, err
	}
	s.engine = engine
	return s, nil
}

// Engine returns the patch engine built from the configured profile.
func (s *Syncer) Engine() *patch.Engine { return s.engine }

// LockPath returns the resolved lock file path.
func (s *Syncer) LockPath() string { return string(s.cfg.Resolve(s.cfg.LockFile)) }

// Run resolves every unit and, in apply mode, synchronizes the target
// repository. The returned report is non-nil whenever the lock file could be
// read, including on failure, and holds the units classified so far.
func (s *Syncer) Run(ctx context.Context, opts Options) (*Report, error) {
	lockPath := s.LockPath()
	lock, err := lockfile.Load(lockPath)
	if err != nil {
		return nil, err
	}

	report := &Report{Mode: opts.Mode, Force: opts.Force}
	units, err := s.resolveAll(ctx, lock, report)
	if err != nil {
		return report, err
	}
	if opts.Mode == ModeCheck {
		return report, nil
	}
	if opts.Force {
		s.logger.Debug("force requested; apply runs always rewrite every unit")
	}

	p, err := s.plan(ctx, units, report)
	if err != nil {
		return report, err
	}
	if err := s.write(p, lock, lockPath, report); err != nil {
		return report, err
	}
	return report, nil
}

func (s *Syncer) resolveAll(ctx context.Context, lock *lockfile.Record, report *Report) ([]resolved, error) {
	units := make([]resolved, 0, len(s.cfg.Units))
	for _, u := range s.cfg.Units {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("sync canceled: %w", err)
		}

		res, err := s.resolver.Resolve(ctx, revision.Target{
			ID:         u.ID,
			Path:       string(u.ResolvedLocalPath(s.cfg.Root)),
			AllowNoVCS: u.AllowNoVCS,
		})
		if err != nil {
			return nil, err
		}

		prev, ok := lock.Head(u.ID)
		status := StatusUnchanged
		if !ok || prev != string(res.Token) {
			status = StatusChanged
		}

		s.logger.Info("resolved", "unit", u.ID, "status", status, "head", res.Token.Short())
		s.logger.Debug("revision", "unit", u.ID, "token", res.Token, "previous", prev, "vcs", res.VCS, "path", res.Path)

		report.Units = append(report.Units, UnitReport{
			ID:       u.ID,
			Name:     u.Name,
			Path:     res.Path,
			Token:    res.Token,
			Previous: prev,
			Status:   status,
			VCS:      res.VCS,
		})
		units = append(units, resolved{unit: u, result: res, index: len(report.Units) - 1})
	}
	return units, nil
}
