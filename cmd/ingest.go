package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/scout-cli/internal/model"
)

var (
	ingestTenant   string
	ingestKind     string
	ingestFile     string
	ingestPayload  string
	ingestPriority int
	ingestAsync    bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest one raw prospect payload",
	Long:  "Enqueues a raw payload for the scanning pipeline and, unless --async is set, processes it to a terminal status.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var payload []byte
		switch {
		case ingestFile != "":
			raw, err := os.ReadFile(ingestFile)
			if err != nil {
				return eris.Wrapf(err, "read payload file %s", ingestFile)
			}
			payload = raw
		case ingestPayload != "":
			payload = []byte(ingestPayload)
		default:
			return eris.New("one of --file or --payload is required")
		}

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		jobID, err := e.Orchestrator.Ingest(ctx, ingestTenant, model.SourceKind(ingestKind), payload, ingestPriority)
		if err != nil {
			return err
		}
		fmt.Printf("job %s enqueued\n", jobID)

		if ingestAsync {
			return nil
		}
		if err := e.Orchestrator.ProcessJob(ctx, jobID); err != nil {
			return err
		}

		status, err := e.Orchestrator.GetJobStatus(ctx, jobID)
		if err != nil {
			return err
		}
		out, _ := json.MarshalIndent(status, "", "  ")
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestTenant, "tenant", "", "tenant id (required)")
	ingestCmd.Flags().StringVar(&ingestKind, "kind", string(model.SourceManualInput), "source kind")
	ingestCmd.Flags().StringVar(&ingestFile, "file", "", "path to a JSON payload file")
	ingestCmd.Flags().StringVar(&ingestPayload, "payload", "", "inline JSON payload")
	ingestCmd.Flags().IntVar(&ingestPriority, "priority", model.DefaultPriority, "job priority (1 = highest)")
	ingestCmd.Flags().BoolVar(&ingestAsync, "async", false, "enqueue only, do not process")
	_ = ingestCmd.MarkFlagRequired("tenant")
	rootCmd.AddCommand(ingestCmd)
}
