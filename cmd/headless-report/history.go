package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Garsondee/opp-block/internal/runstore"
)

func newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("db")
			if path == "" {
				return fmt.Errorf("history needs --db")
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			store, err := runstore.Open(path)
			if err != nil {
				return err
			}
			defer store.Close()
			runs, err := store.Recent(ctx, limit)
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), runs)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list")
	return cmd
}

func printHistory(out io.Writer, runs []runstore.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs recorded")
		return
	}
	fmt.Fprintf(out, "%-4s %-20s %-8s %-7s %-8s %6s %5s %9s %8s %5s %7s\n",
		"id", "recorded", "seed", "mode", "outcome", "secs", "lvl", "peak_heat", "avg_heat", "pop", "stashed")
	for _, r := range runs {
		fmt.Fprintf(out, "%-4d %-20s %-8d %-7s %-8s %6.0f %5d %9.1f %8.1f %5d %7d\n",
			r.ID, r.RecordedAt.Format("2006-01-02 15:04:05"), r.Seed, r.Mode, r.Outcome,
			r.Duration, r.Level, r.PeakHeat, r.AvgHeat, r.PeakPopulation, r.LootStashed)
	}
}
