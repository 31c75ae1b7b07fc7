package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"codecoach/internal/app"
)

func main() {
	cfg := app.DefaultConfig()
	// Env comes before flag binding so flag defaults reflect the
	// environment and explicit flags still win.
	if err := cfg.LoadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:   "codecoach",
		Short: "An interactive coding coach in your terminal",
		Long: "codecoach walks you through bite-size tutorials and exercises,\n" +
			"analyzes the code you type against a local rule table, and offers\n" +
			"debug suggestions when you describe what went wrong.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				a.View().Stop()
			}()

			return a.Run(ctx)
		},
	}

	flags := root.Flags()
	flags.BoolVar(&cfg.Dev, "dev", cfg.Dev, "start the dev HTTP harness")
	flags.StringVar(&cfg.DevHTTP, "dev-http", cfg.DevHTTP, "dev harness listen address")
	flags.StringVar(&cfg.DemoScenario, "demo", cfg.DemoScenario, "apply a demo scenario on startup (requires --dev)")
	flags.StringVar(&cfg.LogPath, "log", cfg.LogPath, "JSON event log path, empty disables logging")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log threshold: debug, info or error")
	flags.BoolVar(&cfg.ASCIIOnly, "ascii", cfg.ASCIIOnly, "draw panels with plain ASCII borders")
	flags.BoolVar(&cfg.DebugLayout, "debug-layout", cfg.DebugLayout, "show layout diagnostics in the header")
	flags.StringVar(&cfg.ContentDir, "content", cfg.ContentDir, "directory holding content catalogs")
	flags.StringVar(&cfg.Language, "language", cfg.Language, "language tag for analysis and highlighting")
	flags.StringVar(&cfg.UI.StyleVariant, "theme", cfg.UI.StyleVariant, "studio_dark, paper_light or retro_terminal")
	flags.StringVar(&cfg.UI.MotionLevel, "motion", cfg.UI.MotionLevel, "animation level: full, reduced or off")
	flags.StringVar(&cfg.UI.MouseScope, "mouse", cfg.UI.MouseScope, "mouse handling: full, scoped or off")
	flags.IntVar(&cfg.Coach.AnalysisDelayMS, "analysis-delay-ms", cfg.Coach.AnalysisDelayMS, "artificial analysis thinking time")
	flags.IntVar(&cfg.Coach.DebugDelayMS, "debug-delay-ms", cfg.Coach.DebugDelayMS, "artificial debug-help thinking time")
	flags.Int64Var(&cfg.Coach.RandomSeed, "seed", cfg.Coach.RandomSeed, "random-pick seed, 0 uses the clock")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
