// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the bundlesync command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	g := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "bundlesync",
		Short: "Vendor upstream sources and merge their translation tables",
		Long: TitleStyle.Render("bundlesync") + SubtitleStyle.Render(" - Vendor upstream sources and merge their translation tables") + `

bundlesync copies the sources of several upstream working copies into one
repository, patches each unit's entry file so it can run bundled, merges the
units' translation tables with a local override directory and records the
synced revision of every unit in a lock file.

Units are declared in 'bundlesync.cue' (or .json/.toml) in the repository root.

` + SubtitleStyle.Render("Examples:") + `
  bundlesync check                          Report which units changed
  bundlesync sync                           Synchronize every unit
  bundlesync patch Mod.java --unit alpha    Preview the entry-file patch
  bundlesync config show                    Show the resolved configuration`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", "", "config file (default is ./bundlesync.cue)")

	rootCmd.AddCommand(newSyncCommand(app, g))
	rootCmd.AddCommand(newCheckCommand(app, g))
	rootCmd.AddCommand(newPatchCommand(app, g))
	rootCmd.AddCommand(newConfigCommand(app, g))

	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the command tree with args and returns the process exit code.
func Execute(ctx context.Context, app *App, args []string) int {
	rootCmd := NewRootCommand(app)
	rootCmd.SetArgs(args)

	err := fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(handleError),
	)
	return int(exitCode(err))
}

// Main runs bundlesync with the process arguments. It is the entry point of
// the binary and of the CLI test scripts.
func Main() int {
	return Execute(context.Background(), NewApp(Dependencies{}), os.Args[1:])
}

// handleError prints errors that command handlers did not render themselves.
func handleError(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}
