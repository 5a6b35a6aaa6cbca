package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"devopsplayground/internal/app"

	"github.com/spf13/cobra"
)

type rootFlags struct {
	catalog     string
	logPath     string
	dataDir     string
	ascii       bool
	style       string
	revealDelay time.Duration
	debug       bool
}

func newRootCmd() *cobra.Command {
	var f rootFlags

	root := &cobra.Command{
		Use:   "playground",
		Short: "Practice DevOps shell commands in a simulated terminal",
		Long: `playground walks through short lessons of DevOps shell commands.

Each step asks for one command. Type it at the prompt: the expected command
prints a canned response, anything else prints a hint. Nothing is executed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, &f)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Run(ctx)
		},
	}

	root.PersistentFlags().StringVar(&f.catalog, "catalog", "", "Lesson catalog file or directory (default: builtin catalog)")
	root.PersistentFlags().StringVar(&f.dataDir, "data-dir", "", "Directory for the settings database (default: ~/.local/share/devops-playground)")
	root.PersistentFlags().StringVar(&f.logPath, "log", "", "Write JSON logs to this file")
	root.PersistentFlags().BoolVar(&f.debug, "debug", false, "Log at debug level")
	root.Flags().BoolVar(&f.ascii, "ascii", false, "Draw panels with ASCII characters only")
	root.Flags().StringVar(&f.style, "style", "", "UI style variant: modern_arcade, cozy_clean, retro_terminal")
	root.Flags().DurationVar(&f.revealDelay, "reveal-delay", 0, "How long the output indicator shows after a correct command (default 1s)")

	root.AddCommand(newLessonsCmd(&f))
	root.AddCommand(newValidateCmd())
	root.AddCommand(newReplayCmd(&f))
	root.AddCommand(newThemeCmd(&f))
	root.AddCommand(newManCmd())
	return root
}

// resolveConfig layers defaults, PLAYGROUND_* environment and explicit flags.
func resolveConfig(cmd *cobra.Command, f *rootFlags) (app.Config, error) {
	cfg := app.DefaultConfig()
	if err := app.LoadEnv(&cfg); err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("catalog") {
		cfg.CatalogPath = f.catalog
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = f.dataDir
	}
	if flags.Changed("log") {
		cfg.LogPath = f.logPath
	}
	if flags.Changed("debug") {
		cfg.Debug = f.debug
	}
	// UI flags live on the root command only.
	if cmd == cmd.Root() {
		if flags.Changed("ascii") {
			cfg.ASCIIOnly = f.ascii
		}
		if flags.Changed("style") {
			cfg.UI.StyleVariant = f.style
		}
		if flags.Changed("reveal-delay") {
			cfg.RevealDelay = f.revealDelay
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
