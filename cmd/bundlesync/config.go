// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bundlesync/bundlesync/internal/config"
)

// newConfigCommand creates the `bundlesync config` command tree.
func newConfigCommand(app *App, g *globalOptions) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect bundlesync configuration",
		Long: `Inspect bundlesync configuration.

Configuration is read from bundlesync.cue, bundlesync.json or bundlesync.toml
in the current directory, or from the file given with --config. Scalar
settings can be overridden with BUNDLESYNC_* environment variables
(for example BUNDLESYNC_VCS_BACKEND=go-git).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context(), g)
			if err != nil {
				return err
			}
			showConfig(app.stdout, cfg)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context(), g)
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, cfg.Path)
			return nil
		},
	})

	return cfgCmd
}

func showConfig(w io.Writer, cfg *config.Config) {
	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	kv := func(indent, key, value string) {
		fmt.Fprintf(w, "%s%s: %s\n", indent, keyStyle.Render(key), valueStyle.Render(value))
	}

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	kv("", "Config file", string(cfg.Path))
	kv("", "Root", string(cfg.Root))
	fmt.Fprintln(w)

	kv("", "lock_file", cfg.LockFile)
	kv("", "source_glob", cfg.SourceGlob)
	kv("", "vcs.backend", cfg.VCS.Backend)
	kv("", "revision.tracked", strings.Join(cfg.Revision.Tracked, ", "))
	kv("", "merge.max_reported", fmt.Sprint(cfg.Merge.MaxReported))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("tables"))
	kv("  ", "dir", cfg.Tables.Dir)
	kv("  ", "local_dir", cfg.Tables.LocalDir)
	kv("  ", "pattern", cfg.Tables.Pattern)

	p := cfg.PatchProfile()
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("patch"))
	kv("  ", "import", p.Import)
	kv("  ", "flag", p.Flag)
	kv("  ", "method", p.Method)
	kv("  ", "param_type", p.MethodParamType)
	kv("  ", "anchor_method", p.AnchorMethod)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("units"))
	for _, u := range cfg.Units {
		fmt.Fprintf(w, "  - %s (%s)\n", valueStyle.Render(u.ID), u.Name)
		fmt.Fprintf(w, "      local_path: %s\n", u.ResolvedLocalPath(cfg.Root))
		fmt.Fprintf(w, "      source_dir: %s  entry_file: %s  tables_dir: %s\n", u.SourceDir, u.EntryFile, u.TablesDir)
		fmt.Fprintf(w, "      patch: %t  allow_no_vcs: %t\n", u.Patch, u.AllowNoVCS)
	}
}
