package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/syssam/quarry/dialect/sql/schema"
)

var validateAgainst string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Cross-check migration files, history and the live schema",
	Long: `Validate first checks the recorded history against the migration files
(checksums, orphaned rows, failed runs). It then derives a desired schema,
either projected from the migration operations or loaded from a snapshot
given with --against, validates its internal consistency and diffs the live
database against it to surface pending drops and breaking changes.

Plain-SQL migration files are opaque to the projection, so without
--against the structural checks run only for code-authored operations.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		migrations, err := schema.LoadDir(os.DirFS(migrationsDir))
		if err != nil {
			return err
		}
		m := schema.NewMigrator(drv)
		issues, err := m.Validate(cmd.Context(), migrations)
		if err != nil {
			return err
		}
		for _, issue := range issues {
			fmt.Printf("V%03d  %s: %s\n", issue.Version, issue.Kind, issue.Detail)
		}
		total := len(issues)

		desired, err := desiredSchema(migrations)
		if err != nil {
			return err
		}
		if desired != nil {
			shape := schema.ValidateSchema(desired.Tables)
			if shape.HasErrors() || shape.HasWarnings() {
				fmt.Println("desired schema:")
				fmt.Println(shape)
			}
			name, err := schemaName(cmd)
			if err != nil {
				return err
			}
			current, err := schema.Inspect(cmd.Context(), drv, name)
			if err != nil {
				return err
			}
			diff := schema.ValidateDiff(current.Tables, desired.Tables)
			if diff.HasErrors() || diff.HasWarnings() {
				fmt.Println("live schema against desired:")
				fmt.Println(diff)
			}
			total += len(shape.Errors) + len(diff.Errors)
		}

		if total == 0 {
			fmt.Println("schema is consistent")
			return nil
		}
		return fmt.Errorf("%d issue(s) found", total)
	},
}

// desiredSchema resolves the shape to validate the live database against: a
// snapshot file when --against is set, otherwise the projection of the
// migration operations. A nil schema means there is nothing to diff.
func desiredSchema(migrations []*schema.Migration) (*schema.DatabaseSchema, error) {
	if validateAgainst != "" {
		data, err := os.ReadFile(validateAgainst)
		if err != nil {
			return nil, err
		}
		if strings.HasSuffix(validateAgainst, ".msgpack") {
			return schema.ParseMsgpack(data)
		}
		return schema.ParseYAML(data)
	}
	desired, err := schema.Project(migrations)
	if err != nil {
		return nil, err
	}
	if len(desired.Tables) == 0 {
		return nil, nil
	}
	return desired, nil
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&migrationsDir, "dir", "migrations", "directory of migration SQL files")
	validateCmd.Flags().StringVar(&validateAgainst, "against", "", "snapshot file (yaml or msgpack) to diff the live schema against")
}
