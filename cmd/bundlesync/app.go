// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/bundlesync/bundlesync/internal/config"
	"github.com/bundlesync/bundlesync/internal/revision"
	"github.com/bundlesync/bundlesync/internal/syncer"
	"github.com/bundlesync/bundlesync/pkg/types"
)

type (
	// App wires CLI services and shared dependencies. All command handlers
	// receive an App and delegate loading and synchronization through it.
	App struct {
		Config config.Provider
		Clock  syncer.Clock
		Heads  revision.HeadReader
		stdout io.Writer
		stderr io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		// Clock stamps the lock file. Nil uses the wall clock.
		Clock syncer.Clock
		// Heads overrides the head reader selected by vcs.backend.
		Heads  revision.HeadReader
		Stdout io.Writer
		Stderr io.Writer
	}

	// globalOptions holds the persistent flags of the root command.
	globalOptions struct {
		configPath string
		verbose    bool
	}
)

// NewApp creates an App from deps.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config: deps.Config,
		Clock:  deps.Clock,
		Heads:  deps.Heads,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// loadConfig loads the configuration selected by --config, rendering any
// failure and mapping it to ExitConfig.
func (a *App) loadConfig(ctx context.Context, g *globalOptions) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: types.FilesystemPath(g.configPath)})
	if err != nil {
		return nil, a.fail(err, g.verbose, types.ExitConfig)
	}
	return cfg, nil
}

// newLogger creates the run logger. --verbose enables debug records.
func (a *App) newLogger(verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(a.stderr, log.Options{
		Prefix: "bundlesync",
		Level:  level,
	})
}

// newSyncer builds a Syncer for cfg carrying the App's injected services.
func (a *App) newSyncer(cfg *config.Config, g *globalOptions) (*syncer.Syncer, error) {
	s, err := syncer.New(cfg,
		syncer.WithLogger(a.newLogger(g.verbose)),
		syncer.WithClock(a.Clock),
		syncer.WithHeadReader(a.Heads),
	)
	if err != nil {
		return nil, a.fail(err, g.verbose, types.ExitConfig)
	}
	return s, nil
}
