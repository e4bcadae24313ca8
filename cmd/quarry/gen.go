package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syssam/quarry/dialect/sql/schema"
	"github.com/syssam/quarry/gen"
)

var (
	genOut string
	genPkg string
)

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate typed column bindings from the live schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := schemaName(cmd)
		if err != nil {
			return err
		}
		s, err := schema.Inspect(cmd.Context(), drv, name)
		if err != nil {
			return err
		}
		if err := gen.Generate(cmd.Context(), s, gen.Config{Package: genPkg, Out: genOut}); err != nil {
			return err
		}
		fmt.Printf("generated bindings for %d table(s) in %s\n", len(s.Tables), genOut)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(genCmd)

	genCmd.Flags().StringVar(&genOut, "out", "model", "output directory")
	genCmd.Flags().StringVar(&genPkg, "pkg", "model", "package name of the generated files")
}
