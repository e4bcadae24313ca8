package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/syssam/quarry/dialect/sql/schema"
)

var inspectFormat string

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Reverse-engineer the live schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := schemaName(cmd)
		if err != nil {
			return err
		}
		s, err := schema.Inspect(cmd.Context(), drv, name)
		if err != nil {
			return err
		}
		switch inspectFormat {
		case "yaml":
			data, err := s.YAML()
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		case "msgpack":
			data, err := s.Msgpack()
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		case "table":
			printSchema(s)
			return nil
		default:
			return fmt.Errorf("unknown format %q: want table, yaml or msgpack", inspectFormat)
		}
	},
}

func printSchema(s *schema.DatabaseSchema) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, t := range s.Tables {
		fmt.Fprintf(w, "%s\t\t\t\n", t.Name)
		for _, c := range t.Columns {
			var notes []string
			if !c.Nullable {
				notes = append(notes, "not null")
			}
			if c.Unique {
				notes = append(notes, "unique")
			}
			if c.AutoIncrement {
				notes = append(notes, "auto")
			}
			if c.Default != nil {
				notes = append(notes, fmt.Sprintf("default %v", c.Default))
			}
			fmt.Fprintf(w, "  %s\t%s\t%s\t\n", c.Name, c.Type, strings.Join(notes, ", "))
		}
		if len(t.PrimaryKey) > 0 {
			fmt.Fprintf(w, "  primary key\t(%s)\t\t\n", strings.Join(t.PrimaryKey, ", "))
		}
		for _, fk := range t.ForeignKeys {
			fmt.Fprintf(w, "  %s\t%s -> %s.%s\t\t\n", fk.Symbol, fk.Column, fk.RefTable, fk.RefColumn)
		}
		for _, idx := range t.Indexes {
			kind := "index"
			if idx.Unique {
				kind = "unique index"
			}
			fmt.Fprintf(w, "  %s\t%s (%s)\t\t\n", idx.Name, kind, strings.Join(idx.Columns, ", "))
		}
	}
	w.Flush()
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVar(&inspectFormat, "format", "table", "output format: table, yaml or msgpack")
}
