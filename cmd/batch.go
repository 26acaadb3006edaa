package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/scout-cli/internal/fetcher"
	"github.com/sells-group/scout-cli/internal/model"
	"github.com/sells-group/scout-cli/internal/orchestrator"
)

var (
	batchTenant   string
	batchFile     string
	batchPriority int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Ingest prospects in bulk from a CSV or XLSX file",
	Long:  "Each row becomes one csv_row ingestion job. A 'priority' column, when present, overrides --priority per row; rows at priority 3 or better are processed before the rest fan out.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		table, err := fetcher.ReadTable(batchFile)
		if err != nil {
			return err
		}
		items, err := tableToItems(table)
		if err != nil {
			return err
		}

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		res, err := e.Orchestrator.IngestBatch(ctx, batchTenant, items)
		if err != nil {
			return err
		}
		fmt.Printf("enqueued %d, rejected %d, processed %d, failed %d\n",
			res.Enqueued, res.Rejected, res.Processed, res.Failed)
		return nil
	},
}

// tableToItems converts an import table into batch items, mapping a
// priority column when one exists.
func tableToItems(table *fetcher.Table) ([]orchestrator.BatchItem, error) {
	priorityCol := -1
	for i, h := range table.Header {
		if strings.EqualFold(strings.TrimSpace(h), "priority") {
			priorityCol = i
		}
	}

	items := make([]orchestrator.BatchItem, 0, len(table.Rows))
	for _, row := range table.Rows {
		columns := make(map[string]string, len(table.Header))
		priority := batchPriority
		for i, h := range table.Header {
			if i >= len(row) {
				break
			}
			if i == priorityCol {
				if p, err := strconv.Atoi(strings.TrimSpace(row[i])); err == nil && p > 0 {
					priority = p
				}
				continue
			}
			columns[h] = row[i]
		}
		payload, err := json.Marshal(map[string]any{"columns": columns})
		if err != nil {
			return nil, eris.Wrap(err, "encode row payload")
		}
		items = append(items, orchestrator.BatchItem{
			SourceKind: model.SourceCSVRow,
			RawPayload: payload,
			Priority:   priority,
		})
	}
	return items, nil
}

func init() {
	batchCmd.Flags().StringVar(&batchTenant, "tenant", "", "tenant id (required)")
	batchCmd.Flags().StringVar(&batchFile, "file", "", "CSV or XLSX file (required)")
	batchCmd.Flags().IntVar(&batchPriority, "priority", model.DefaultPriority, "default priority for rows without one")
	_ = batchCmd.MarkFlagRequired("tenant")
	_ = batchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(batchCmd)
}
