// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bundlesync/bundlesync/internal/issue"
	"github.com/bundlesync/bundlesync/internal/patch"
	"github.com/bundlesync/bundlesync/pkg/types"
)

type patchOptions struct {
	unit  string
	write bool
	state bool
}

func newPatchCommand(app *App, g *globalOptions) *cobra.Command {
	opts := &patchOptions{}

	cmd := &cobra.Command{
		Use:   "patch <file>",
		Short: "Run the entry-file patch on a single file",
		Long: `Run the entry-file patch on a single file using the configured patch profile.

The result is printed to stdout unless --write is given. --state prints which
parts of the patch are already present instead.`,
		Example: `  # Preview the patched file
  bundlesync patch src/main/java/alpha/AlphaMod.java --unit alpha

  # Show which patch steps are already applied
  bundlesync patch AlphaMod.java --unit alpha --state`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPatch(cmd, app, g, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.unit, "unit", "", "ID of the unit the file belongs to (required)")
	cmd.Flags().BoolVar(&opts.write, "write", false, "rewrite the file in place")
	cmd.Flags().BoolVar(&opts.state, "state", false, "print the patch state instead of the patched text")
	_ = cmd.MarkFlagRequired("unit")
	cmd.MarkFlagsMutuallyExclusive("write", "state")

	return cmd
}

func runPatch(cmd *cobra.Command, app *App, g *globalOptions, opts *patchOptions, file string) error {
	cfg, err := app.loadConfig(cmd.Context(), g)
	if err != nil {
		return err
	}
	if _, ok := cfg.Unit(opts.unit); !ok {
		err := issue.NewErrorContext().
			WithOperation("patch file").
			WithResource(file).
			WithSuggestion("Use one of the unit IDs listed by 'bundlesync config show'").
			Wrap(fmt.Errorf("unknown unit %q", opts.unit)).
			BuildError()
		return app.fail(err, g.verbose, types.ExitConfig)
	}

	engine, err := patch.NewEngine(cfg.PatchProfile())
	if err != nil {
		return app.fail(err, g.verbose, types.ExitConfig)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return app.fail(err, g.verbose, types.ExitFailure)
	}
	src := string(data)

	if opts.state {
		renderPatchState(app.stdout, engine.Inspect(src))
		return nil
	}

	out, err := engine.Apply(opts.unit, src)
	if err != nil {
		return app.fail(err, g.verbose, types.ExitFailure)
	}

	if !opts.write {
		fmt.Fprint(app.stdout, out)
		return nil
	}
	if out == src {
		fmt.Fprintf(app.stdout, "%s %s already patched\n", SuccessStyle.Render("="), file)
		return nil
	}

	info, err := os.Stat(file)
	if err != nil {
		return app.fail(err, g.verbose, types.ExitFailure)
	}
	if err := os.WriteFile(file, []byte(out), info.Mode().Perm()); err != nil {
		return app.fail(err, g.verbose, types.ExitFailure)
	}
	fmt.Fprintf(app.stdout, "%s %s patched\n", SuccessStyle.Render("✓"), file)
	return nil
}

func renderPatchState(w io.Writer, s patch.State) {
	rows := []struct {
		label string
		ok    bool
	}{
		{"import", s.ImportPresent},
		{"flag", s.FlagDeclared},
		{"reference", s.ReferencePresent},
		{"method", s.MethodDeclared},
		{"guard anchor", s.GuardAnchorPresent},
		{"guard", s.GuardPresent},
	}
	for _, r := range rows {
		mark := WarningStyle.Render("missing")
		if r.ok {
			mark = SuccessStyle.Render("present")
		}
		fmt.Fprintf(w, "%-13s %s\n", r.label+":", mark)
	}
	fmt.Fprintf(w, "%-13s %t\n", "applied:", s.Applied())
}
