package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/syssam/quarry/dialect/sql/schema"
)

var rollbackSteps int

var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Revert the most recently applied migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		migrations, err := schema.LoadDir(os.DirFS(migrationsDir))
		if err != nil {
			return err
		}
		m := schema.NewMigrator(drv)
		res, err := m.Rollback(cmd.Context(), migrations, rollbackSteps)
		if res != nil {
			for _, mig := range res.Executed {
				fmt.Printf("rolled back %s\n", mig.Name())
			}
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(rollbackCmd)

	rollbackCmd.Flags().StringVar(&migrationsDir, "dir", "migrations", "directory of migration SQL files")
	rollbackCmd.Flags().IntVar(&rollbackSteps, "steps", 1, "number of migrations to revert")
}
