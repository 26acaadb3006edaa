package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/scout-cli/internal/model"
)

var (
	patternsLimit    int
	pruneMinCount    int
	pruneOlderThanDays int
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Inspect and maintain crowd learning patterns",
}

var patternsTopCmd = &cobra.Command{
	Use:   "top <pattern-type>",
	Short: "Show the highest-occurrence patterns of a type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		patterns, err := e.Learner.GetTopPatterns(ctx, model.PatternType(args[0]), patternsLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tCOUNT\tCONV_RATE\tINDUSTRIES")
		for _, p := range patterns {
			fmt.Fprintf(w, "%s\t%d\t%.2f\t%v\n",
				p.Key, p.OccurrenceCount, p.Data[model.PatternFieldConversionRate], p.Industries)
		}
		return w.Flush()
	},
}

var patternsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete rare, stale patterns to keep the table bounded",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		cutoff := time.Now().AddDate(0, 0, -pruneOlderThanDays)
		n, err := e.Learner.PruneRarePatterns(ctx, pruneMinCount, cutoff)
		if err != nil {
			return err
		}
		fmt.Printf("pruned %d patterns\n", n)
		return nil
	},
}

func init() {
	patternsTopCmd.Flags().IntVar(&patternsLimit, "limit", 10, "maximum rows")
	patternsPruneCmd.Flags().IntVar(&pruneMinCount, "min-count", 3, "keep patterns at or above this occurrence count")
	patternsPruneCmd.Flags().IntVar(&pruneOlderThanDays, "older-than", 90, "only prune patterns idle for this many days")
	patternsCmd.AddCommand(patternsTopCmd, patternsPruneCmd)
	rootCmd.AddCommand(patternsCmd)
}
