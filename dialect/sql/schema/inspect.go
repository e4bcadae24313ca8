package schema

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/quarry/dialect"
)

// inspectDialect reads catalog metadata. Implemented by every DDL dialect.
type inspectDialect interface {
	tableNames(ctx context.Context, conn dialect.ExecQuerier, schemaName string) ([]string, error)
	table(ctx context.Context, conn dialect.ExecQuerier, schemaName, name string) (*Table, error)
}

// InspectOption configures an Inspect call.
type InspectOption func(*inspector)

type inspector struct {
	exclude map[string]bool
}

// ExcludeTables excludes the given tables from the result, in addition to
// the migration history table.
func ExcludeTables(names ...string) InspectOption {
	return func(i *inspector) {
		for _, name := range names {
			i.exclude[name] = true
		}
	}
}

// Inspect reconstructs the schema model from the live catalog: per table its
// columns with mapped logical types, the primary key in declared order,
// foreign keys with their cascade actions, and indexes. The history table is
// excluded. Per-table reads run concurrently; results keep catalog order.
func Inspect(ctx context.Context, drv dialect.Driver, schemaName string, opts ...InspectOption) (*DatabaseSchema, error) {
	d, err := ddlFor(drv.Dialect())
	if err != nil {
		return nil, err
	}
	id, ok := d.(inspectDialect)
	if !ok {
		return nil, fmt.Errorf("schema: dialect %q does not support introspection", drv.Dialect())
	}
	ins := &inspector{exclude: map[string]bool{DefaultHistoryTable: true}}
	for _, opt := range opts {
		opt(ins)
	}
	names, err := id.tableNames(ctx, drv, schemaName)
	if err != nil {
		return nil, err
	}
	var included []string
	for _, name := range names {
		if !ins.exclude[name] {
			included = append(included, name)
		}
	}
	tables := make([]*Table, len(included))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, name := range included {
		i, name := i, name
		g.Go(func() error {
			t, err := id.table(gctx, drv, schemaName, name)
			if err != nil {
				return fmt.Errorf("schema: inspecting table %q: %w", name, err)
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &DatabaseSchema{Name: schemaName, Tables: tables}, nil
}
