package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/scout-cli/internal/model"
	"github.com/sells-group/scout-cli/internal/store"
)

var (
	jobsTenant string
	jobsStatus string
	jobsLimit  int
	jobsPasses bool
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect ingestion jobs",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs, optionally filtered by status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		jobs, err := e.Orchestrator.ListJobs(ctx, store.JobFilter{
			TenantID: jobsTenant,
			Status:   model.JobStatus(jobsStatus),
			Limit:    jobsLimit,
		})
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTENANT\tKIND\tSTATUS\tPRIO\tRETRIES\tPROSPECT")
		for _, j := range jobs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
				j.ID, j.TenantID, j.SourceKind, j.Status, j.Priority, j.RetryCount, j.ProspectID)
		}
		return w.Flush()
	},
}

var jobsShowCmd = &cobra.Command{
	Use:   "show <job-id>",
	Short: "Show a job's status, optionally with its pass audit log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		status, err := e.Orchestrator.GetJobStatus(ctx, args[0])
		if err != nil {
			return err
		}
		out, _ := json.MarshalIndent(status, "", "  ")
		fmt.Println(string(out))

		if !jobsPasses {
			return nil
		}
		passes, err := e.Orchestrator.PassLog(ctx, args[0])
		if err != nil {
			return err
		}
		for _, p := range passes {
			blob, _ := json.MarshalIndent(p.Results, "", "  ")
			fmt.Printf("\n-- pass %d (%s, %dms)\n%s\n", p.PassNumber, p.PassName, p.DurationMs, blob)
		}
		return nil
	},
}

func init() {
	jobsListCmd.Flags().StringVar(&jobsTenant, "tenant", "", "filter by tenant id")
	jobsListCmd.Flags().StringVar(&jobsStatus, "status", "", "filter by status")
	jobsListCmd.Flags().IntVar(&jobsLimit, "limit", 50, "maximum rows")
	jobsShowCmd.Flags().BoolVar(&jobsPasses, "passes", false, "include the pass result log")
	jobsCmd.AddCommand(jobsListCmd, jobsShowCmd)
	rootCmd.AddCommand(jobsCmd)
}
