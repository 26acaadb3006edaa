package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	prospectsTenant string
	prospectsLimit  int
)

var prospectsCmd = &cobra.Command{
	Use:   "prospects",
	Short: "Query scored prospects",
}

var prospectsHotCmd = &cobra.Command{
	Use:   "hot",
	Short: "List prospects above the hot-score threshold",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		hot, err := e.Orchestrator.GetHotProspects(ctx, prospectsTenant, prospectsLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tHOT\tSCOUT\tSTAGE\tINDUSTRY\tEMAIL\tPHONE")
		for _, p := range hot {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\t%s\t%s\n",
				p.ID, p.Name, p.HotProspectScore, p.ScoutScoreV10, p.LeadStage, p.Industry, p.Email, p.Phone)
		}
		return w.Flush()
	},
}

var prospectsShowCmd = &cobra.Command{
	Use:   "show <prospect-id>",
	Short: "Show a prospect with a live next-action recommendation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		intel, err := e.Orchestrator.GetProspectIntelligence(ctx, prospectsTenant, args[0])
		if err != nil {
			return err
		}
		out, _ := json.MarshalIndent(intel, "", "  ")
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	prospectsCmd.PersistentFlags().StringVar(&prospectsTenant, "tenant", "", "tenant id (required)")
	prospectsHotCmd.Flags().IntVar(&prospectsLimit, "limit", 20, "maximum rows")
	_ = prospectsCmd.MarkPersistentFlagRequired("tenant")
	prospectsCmd.AddCommand(prospectsHotCmd, prospectsShowCmd)
	rootCmd.AddCommand(prospectsCmd)
}
