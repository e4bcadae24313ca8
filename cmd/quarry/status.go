package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/syssam/quarry/dialect/sql/schema"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		migrations, err := schema.LoadDir(os.DirFS(migrationsDir))
		if err != nil {
			return err
		}
		m := schema.NewMigrator(drv)
		report, err := m.Status(cmd.Context(), migrations)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "VERSION\tDESCRIPTION\tSTATUS\tEXECUTED AT")
		for _, e := range report.Applied {
			at := time.UnixMilli(e.Record.ExecutedAt).Format(time.RFC3339)
			fmt.Fprintf(w, "V%03d\t%s\t%s\t%s\n", e.Migration.Version, e.Migration.Description, e.Record.Status, at)
		}
		for _, mig := range report.Pending {
			fmt.Fprintf(w, "V%03d\t%s\tPENDING\t\n", mig.Version, mig.Description)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&migrationsDir, "dir", "migrations", "directory of migration SQL files")
}
