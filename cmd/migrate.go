package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/scout-cli/internal/pipeline"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and seed compliance filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate")
		}
		if err := st.SeedFilters(ctx, pipeline.DefaultFilterRules()); err != nil {
			return eris.Wrap(err, "seed filters")
		}
		if cfg.Rules.ComplianceFile != "" {
			rules, err := pipeline.LoadFilterRules(cfg.Rules.ComplianceFile)
			if err != nil {
				return err
			}
			if err := st.SeedFilters(ctx, rules); err != nil {
				return eris.Wrap(err, "seed compliance overlay")
			}
		}
		fmt.Println("schema up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
