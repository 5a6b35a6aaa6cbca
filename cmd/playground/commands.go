package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"devopsplayground/internal/engine"
	"devopsplayground/internal/lessons"
	"devopsplayground/internal/replay"
	"devopsplayground/internal/state"
	"devopsplayground/internal/ui"

	"github.com/spf13/cobra"
)

func newLessonsCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "lessons",
		Short: "List the lessons in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, f)
			if err != nil {
				return err
			}
			catalog, err := lessons.NewLoader().Load(cmd.Context(), cfg.CatalogPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if catalog.Name != "" {
				fmt.Fprintf(out, "%s (%s)\n", catalog.Name, catalog.Path)
			}
			for i, l := range catalog.Lessons {
				fmt.Fprintf(out, "%2d  %-20s %-24s %d steps\n", i+1, l.ID, l.Title, len(l.Steps))
			}
			return nil
		},
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate PATH",
		Short: "Load and validate a lesson catalog file or directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := lessons.NewLoader().Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			steps := 0
			for _, l := range catalog.Lessons {
				steps += len(l.Steps)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d lessons, %d steps (%s)\n", catalog.Len(), steps, catalog.Path)
			return nil
		},
	}
}

func newReplayCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "replay [SCRIPT]",
		Short: "Feed a script of commands through the lessons without the UI",
		Long: `replay reads one command per line from SCRIPT, or stdin when SCRIPT is
omitted or "-", and prints the transcript the playground would show.

Blank lines and lines starting with '#' are skipped. ":lesson N" selects
lesson N (1-based) and ":reset" clears the transcript.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, f)
			if err != nil {
				return err
			}
			catalog, err := lessons.NewLoader().Load(cmd.Context(), cfg.CatalogPath)
			if err != nil {
				return err
			}

			var script io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				file, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer file.Close()
				script = file
			}

			session := engine.NewSession(catalog, engine.Options{RevealDelay: cfg.RevealDelay})
			sum, err := replay.Run(cmd.Context(), session, script, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "replayed %d commands: %d correct, %d ignored\n", sum.Submitted, sum.Correct, sum.Ignored)
			return nil
		},
	}
}

func newThemeCmd(f *rootFlags) *cobra.Command {
	var ascii string
	cmd := &cobra.Command{
		Use:   "theme [VARIANT]",
		Short: "Show or save the UI style variant",
		Long: `theme prints the stored UI style variant, or saves VARIANT as the default
for later sessions. Variants: ` + strings.Join(ui.StyleVariants, ", ") + `.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, f)
			if err != nil {
				return err
			}
			store, err := state.NewSQLite(cfg.SettingsPath())
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			if err := store.EnsureSchema(ctx); err != nil {
				return err
			}

			var update state.Preferences
			if len(args) == 1 {
				if !ui.ValidStyleVariant(args[0]) {
					return fmt.Errorf("unknown style variant %q (want one of %s)", args[0], strings.Join(ui.StyleVariants, ", "))
				}
				update.StyleVariant = ui.NormalizeStyleVariant(args[0])
			}
			if cmd.Flags().Changed("ascii") {
				v, err := strconv.ParseBool(ascii)
				if err != nil {
					return fmt.Errorf("invalid --ascii value %q", ascii)
				}
				update.ASCIIOnly = &v
			}
			if err := store.SavePreferences(ctx, update); err != nil {
				return err
			}

			prefs, err := store.LoadPreferences(ctx)
			if err != nil {
				return err
			}
			current := ui.NormalizeStyleVariant(prefs.StyleVariant)
			out := cmd.OutOrStdout()
			for _, v := range ui.StyleVariants {
				marker := " "
				if v == current {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s\n", marker, v)
			}
			if prefs.ASCIIOnly != nil {
				fmt.Fprintf(out, "ascii: %t\n", *prefs.ASCIIOnly)
			}
			if !prefs.UpdatedAt.IsZero() {
				fmt.Fprintf(out, "saved: %s\n", prefs.UpdatedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&ascii, "ascii", "", "Save the ASCII-only preference (true or false)")
	return cmd
}
