// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bundlesync/bundlesync/internal/revision"
	"github.com/bundlesync/bundlesync/internal/syncer"
	"github.com/bundlesync/bundlesync/pkg/types"
)

func newSyncCommand(app *App, g *globalOptions) *cobra.Command {
	var check, force bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize every unit into the repository",
		Long: `Synchronize every configured unit.

Each unit's working copy is resolved to a revision token and compared with the
lock file. Sources are then copied (entry files patched), translation tables
merged and the lock file rewritten. Nothing is written unless every unit
resolves, patches and merges cleanly.`,
		Example: `  # Synchronize every unit
  bundlesync sync

  # Only report which units changed
  bundlesync sync --check`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := syncer.ModeApply
			if check {
				mode = syncer.ModeCheck
			}
			return runSync(cmd, app, g, syncer.Options{Mode: mode, Force: force})
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "report changed units without writing anything")
	cmd.Flags().BoolVar(&force, "force", false, "accepted for compatibility; every apply run rewrites all units")

	return cmd
}

func newCheckCommand(app *App, g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report which units changed since the last sync",
		Long:  "Shorthand for 'bundlesync sync --check'. Never writes to the filesystem.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, app, g, syncer.Options{Mode: syncer.ModeCheck})
		},
	}
}

func runSync(cmd *cobra.Command, app *App, g *globalOptions, opts syncer.Options) error {
	cfg, err := app.loadConfig(cmd.Context(), g)
	if err != nil {
		return err
	}
	s, err := app.newSyncer(cfg, g)
	if err != nil {
		return err
	}

	report, err := s.Run(cmd.Context(), opts)
	if report != nil {
		renderReport(app.stdout, report, g.verbose)
	}
	if err != nil {
		return app.fail(err, g.verbose, types.ExitFailure)
	}
	return nil
}

// renderReport prints the human summary of a run.
func renderReport(w io.Writer, r *syncer.Report, verbose bool) {
	fmt.Fprintln(w, TitleStyle.Render("Sync ("+r.Mode.String()+")"))

	width := 0
	for _, u := range r.Units {
		width = max(width, len(u.ID))
	}

	for _, u := range r.Units {
		icon, status := SuccessStyle.Render("="), SuccessStyle.Render(string(u.Status))
		if u.Status == syncer.StatusChanged {
			icon, status = WarningStyle.Render("~"), WarningStyle.Render(string(u.Status))
		}

		line := fmt.Sprintf("  %s %s %s %s", icon, CmdStyle.Render(pad(u.ID, width)), status, VerboseStyle.Render(u.Token.Short()))
		if u.Status == syncer.StatusChanged && u.Previous != "" {
			line += VerboseStyle.Render(" (was " + revision.Token(u.Previous).Short() + ")")
		}
		if r.Mode == syncer.ModeApply && u.Files > 0 {
			line += SubtitleStyle.Render(fmt.Sprintf(" %d file(s)", u.Files))
			if u.Patched {
				line += SubtitleStyle.Render(", patched")
			}
		}
		fmt.Fprintln(w, line)
		if verbose {
			fmt.Fprintf(w, "      %s\n", VerboseStyle.Render(string(u.Token)+"  "+u.Path))
		}
	}

	changed := len(r.Changed())
	if r.Mode == syncer.ModeCheck {
		fmt.Fprintf(w, "\n%d of %d unit(s) changed\n", changed, len(r.Units))
		return
	}
	if r.LockFile == "" {
		return
	}

	if len(r.Tables) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, SubtitleStyle.Render("Tables:"))
		for _, t := range r.Tables {
			fmt.Fprintf(w, "  %s %d key(s) from %s\n", CmdStyle.Render(t.Name), t.Keys, strings.Join(t.Sources, " + "))
		}
	}
	for _, name := range r.RemovedTables {
		fmt.Fprintf(w, "  %s removed stale %s\n", WarningStyle.Render("-"), name)
	}
	for _, id := range r.DroppedLocks {
		fmt.Fprintf(w, "  %s dropped lock entry %s\n", WarningStyle.Render("-"), id)
	}

	fmt.Fprintf(w, "\n%s %d unit(s) synced, %d changed; lock file %s\n",
		SuccessStyle.Render("✓"), len(r.Units), changed, r.LockFile)
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
