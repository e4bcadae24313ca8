package main

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"

	esql "github.com/syssam/quarry/dialect/sql"
	"github.com/syssam/quarry/dialect/sql/schema"
)

var (
	seedTable string
	seedCount int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert fake rows into a table",
	Long: `Seed inserts generated fake rows into one table. Foreign-key columns
draw from values already present in the referenced table, so parents
must be seeded first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := schemaName(cmd)
		if err != nil {
			return err
		}
		s, err := schema.Inspect(cmd.Context(), drv, name)
		if err != nil {
			return err
		}
		t, ok := s.Table(seedTable)
		if !ok {
			return fmt.Errorf("table %q not found", seedTable)
		}
		refs, err := loadRefValues(cmd.Context(), t)
		if err != nil {
			return err
		}

		uiprogress.Start()
		bar := uiprogress.AddBar(seedCount).AppendCompleted().PrependElapsed()
		defer uiprogress.Stop()

		entity := esql.Table(t.Name)
		for i := 0; i < seedCount; i++ {
			ins := esql.Insert(entity)
			for _, c := range t.Columns {
				if c.AutoIncrement || c.Type.Kind == schema.KindSerial || c.Type.Kind == schema.KindBigSerial {
					continue
				}
				if vals, ok := refs[c.Name]; ok {
					ins.Set(c.Name, vals[gofakeit.Number(0, len(vals)-1)])
					continue
				}
				ins.Set(c.Name, fakeValue(c))
			}
			query, args, err := ins.Render(drv.Dialect())
			if err != nil {
				return err
			}
			if err := drv.Exec(cmd.Context(), query, args, nil); err != nil {
				return fmt.Errorf("insert into %s: %w", t.Name, err)
			}
			bar.Incr()
		}
		return nil
	},
}

// loadRefValues collects the existing key values of every referenced table so
// foreign-key columns get valid references.
func loadRefValues(ctx context.Context, t *schema.Table) (map[string][]any, error) {
	refs := make(map[string][]any)
	for _, fk := range t.ForeignKeys {
		ref := esql.Table(fk.RefTable)
		query, args, err := esql.Select(ref).
			Fields(esql.Column(esql.C(ref, fk.RefColumn))).
			Render(drv.Dialect())
		if err != nil {
			return nil, err
		}
		rows := &esql.Rows{}
		if err := drv.Query(ctx, query, args, rows); err != nil {
			return nil, err
		}
		var vals []any
		for rows.Next() {
			var v any
			if err := rows.Scan(&v); err != nil {
				rows.Close()
				return nil, err
			}
			vals = append(vals, v)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
		if len(vals) == 0 {
			return nil, fmt.Errorf("table %q references empty table %q: seed it first", t.Name, fk.RefTable)
		}
		refs[fk.Column] = vals
	}
	return refs, nil
}

func fakeValue(c *schema.Column) any {
	switch c.Type.Kind {
	case schema.KindVarchar, schema.KindChar:
		size := c.Type.Size
		if size == 0 || size > 32 {
			size = 16
		}
		return gofakeit.LetterN(uint(size))
	case schema.KindText:
		return gofakeit.Sentence(8)
	case schema.KindInt, schema.KindBigInt:
		return gofakeit.Number(1, 1_000_000)
	case schema.KindSmallInt:
		return gofakeit.Number(1, 30_000)
	case schema.KindBool:
		return gofakeit.Bool()
	case schema.KindDecimal, schema.KindFloat, schema.KindDouble:
		return gofakeit.Price(0.99, 9_999.99)
	case schema.KindDate, schema.KindTime, schema.KindTimestamp, schema.KindTimestampTZ:
		return gofakeit.DateRange(time.Now().AddDate(-1, 0, 0), time.Now())
	case schema.KindBinary, schema.KindBlob:
		return []byte(gofakeit.LetterN(16))
	case schema.KindJSON, schema.KindJSONB:
		return fmt.Sprintf(`{"word": %q}`, gofakeit.Word())
	case schema.KindUUID:
		return uuid.NewString()
	case schema.KindEnum:
		return gofakeit.RandomString(c.Type.EnumValues)
	default:
		return gofakeit.Word()
	}
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVar(&seedTable, "table", "", "table to seed (required)")
	seedCmd.Flags().IntVar(&seedCount, "count", 100, "number of rows to insert")
	seedCmd.MarkFlagRequired("table")
}
