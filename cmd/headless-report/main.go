package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Garsondee/opp-block/internal/sim"
)

func main() {
	rootCmd := newRootCmd()
	rootCmd.AddCommand(
		newHistoryCmd(),
		newServeCmd(),
	)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type reportOptions struct {
	runs     int
	duration float64
	seedBase int64
	seedStep int64
	window   float64
	config   string
	db       string
	mode     string
	verbose  bool
}

func newRootCmd() *cobra.Command {
	var opts reportOptions
	cmd := &cobra.Command{
		Use:   "headless-report",
		Short: "Run seeded autopilot sessions and print a threat report",
		Long: `headless-report plays seeded sessions with a scripted player and prints
per-run phase markers and economy figures plus an aggregate across runs.

Runs can be recorded to a sqlite history with --db and listed with
"headless-report history".`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.IntVar(&opts.runs, "runs", 5, "number of headless sessions")
	f.Float64Var(&opts.duration, "duration", 300, "simulated seconds per session")
	f.Int64Var(&opts.seedBase, "seed-base", 42, "seed for run 1")
	f.Int64Var(&opts.seedStep, "seed-step", 1, "seed increment between runs")
	f.Float64Var(&opts.window, "window", 30, "reporter window in simulated seconds")
	f.StringVar(&opts.mode, "mode", "looter", "autopilot mode: idle, looter, hunter")
	f.BoolVar(&opts.verbose, "verbose", false, "print the world summary after each run")
	cmd.PersistentFlags().StringVar(&opts.config, "config", "", "tuning yaml (defaults when empty)")
	cmd.PersistentFlags().StringVar(&opts.db, "db", "", "sqlite run history path")
	return cmd
}

// loadTuning returns the defaults, or path laid over them.
func loadTuning(path string) (sim.Tuning, error) {
	if path == "" {
		return sim.DefaultTuning(), nil
	}
	return sim.LoadTuning(path)
}

func runReport(cmd *cobra.Command, opts reportOptions) error {
	if opts.runs <= 0 {
		return fmt.Errorf("--runs must be > 0")
	}
	if opts.duration <= 0 {
		return fmt.Errorf("--duration must be > 0")
	}
	tuning, err := loadTuning(opts.config)
	if err != nil {
		return err
	}
	mode := sim.ParseAutopilotMode(opts.mode)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "=== Headless Threat Report ===\n")
	fmt.Fprintf(out, "mode=%s runs=%d duration=%.0fs seed_base=%d seed_step=%d\n\n",
		mode, opts.runs, opts.duration, opts.seedBase, opts.seedStep)

	all := make([]runStats, 0, opts.runs)
	for i := 0; i < opts.runs; i++ {
		seed := opts.seedBase + int64(i)*opts.seedStep
		rs, summary := runSession(i+1, seed, mode, tuning, opts.duration, opts.window)
		all = append(all, rs)
		printRun(out, rs)
		if opts.verbose {
			fmt.Fprintln(out, summary)
		}
	}
	printAggregate(out, all)

	if opts.db != "" {
		n, err := recordRuns(cmd.Context(), opts.db, all)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nrecorded %d run(s) to %s\n", n, opts.db)
	}
	return nil
}
