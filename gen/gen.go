// Package gen generates typed column bindings from a schema snapshot: one Go
// file per table with the entity descriptor, its column references, a row
// struct and a declared mapping, so query code compiles against the schema
// instead of string literals.
package gen

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/dave/jennifer/jen"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"

	"github.com/syssam/quarry/dialect/sql/schema"
)

const sqlPkg = "github.com/syssam/quarry/dialect/sql"

// Config controls a Generate run.
type Config struct {
	// Package is the package name of the generated files.
	Package string
	// Out is the output directory, created if missing.
	Out string
	// Workers caps the parallel file builds. Defaults to GOMAXPROCS.
	Workers int
}

// Generate writes one binding file per table. Files build and format in
// parallel; any failure aborts the run.
func Generate(ctx context.Context, s *schema.DatabaseSchema, cfg Config) error {
	if cfg.Package == "" {
		return fmt.Errorf("gen: package name is required")
	}
	if err := os.MkdirAll(cfg.Out, 0o755); err != nil {
		return fmt.Errorf("gen: create output directory: %w", err)
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, t := range s.Tables {
		t := t
		g.Go(func() error {
			src, err := GenerateTable(t, cfg.Package)
			if err != nil {
				return err
			}
			name := filepath.Join(cfg.Out, t.Name+".go")
			if err := os.WriteFile(name, src, 0o644); err != nil {
				return fmt.Errorf("gen: write %s: %w", name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// GenerateTable renders the bindings for a single table as formatted source.
func GenerateTable(t *schema.Table, pkg string) ([]byte, error) {
	f := jen.NewFile(pkg)
	f.HeaderComment("Code generated by quarry gen. DO NOT EDIT.")

	typeName := entityName(t.Name)
	genEntity(f, t, typeName)
	genColumns(f, t, typeName)
	genEnums(f, t, typeName)
	genRow(f, t, typeName)
	genMapping(f, t, typeName)

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, fmt.Errorf("gen: render %s: %w", t.Name, err)
	}
	// imports.Process prunes unused imports and normalizes grouping.
	src, err := imports.Process(t.Name+".go", buf.Bytes(), nil)
	if err != nil {
		return nil, fmt.Errorf("gen: format %s: %w", t.Name, err)
	}
	return src, nil
}

// genEntity generates the entity descriptor bound to the physical table name.
func genEntity(f *jen.File, t *schema.Table, typeName string) {
	f.Commentf("%s is the entity descriptor of the %s table.", typeName, t.Name)
	f.Var().Id(typeName).Op("=").Qual(sqlPkg, "Table").Call(jen.Lit(t.Name))
}

// genColumns generates one ColumnRef per column, grouped in a struct so the
// bindings read as <Entity>Columns.<Field>.
func genColumns(f *jen.File, t *schema.Table, typeName string) {
	f.Commentf("%sColumns are the typed column references of the %s table.", typeName, t.Name)
	f.Var().Id(typeName + "Columns").Op("=").StructFunc(func(group *jen.Group) {
		for _, c := range t.Columns {
			group.Id(fieldName(c.Name)).Qual(sqlPkg, "ColumnRef")
		}
	}).Values(jen.DictFunc(func(d jen.Dict) {
		for _, c := range t.Columns {
			d[jen.Id(fieldName(c.Name))] = jen.Qual(sqlPkg, "C").Call(jen.Id(typeName), jen.Lit(fieldName(c.Name)))
		}
	}))
}

// genEnums generates one constant block per enum column.
func genEnums(f *jen.File, t *schema.Table, typeName string) {
	for _, c := range t.Columns {
		if c.Type.Kind != schema.KindEnum {
			continue
		}
		f.Commentf("Values of the %s.%s enum column.", t.Name, c.Name)
		f.Const().DefsFunc(func(group *jen.Group) {
			for _, v := range c.Type.EnumValues {
				group.Id(typeName + fieldName(c.Name) + enumConstName(v)).Op("=").Lit(v)
			}
		})
	}
}

// genRow generates the row struct with mapped Go types.
func genRow(f *jen.File, t *schema.Table, typeName string) {
	f.Commentf("%sRow is one scanned row of the %s table.", typeName, t.Name)
	f.Type().Id(typeName + "Row").StructFunc(func(group *jen.Group) {
		for _, c := range t.Columns {
			group.Id(fieldName(c.Name)).Add(goType(c))
		}
	})
}

// genMapping generates the declared mapping consumed by the Inserter.
func genMapping(f *jen.File, t *schema.Table, typeName string) {
	pk := make(map[string]bool, len(t.PrimaryKey))
	for _, name := range t.PrimaryKey {
		pk[name] = true
	}
	f.Commentf("%sMapping maps %sRow records onto the %s table.", typeName, typeName, t.Name)
	f.Var().Id(typeName + "Mapping").Op("=").Qual(sqlPkg, "Mapping").Values(jen.Dict{
		jen.Id("Entity"): jen.Id(typeName),
		jen.Id("Fields"): jen.Index().Qual(sqlPkg, "FieldMapping").ValuesFunc(func(vals *jen.Group) {
			for _, c := range t.Columns {
				d := jen.Dict{
					jen.Id("Name"): jen.Lit(fieldName(c.Name)),
					jen.Id("Get"): jen.Func().Params(jen.Id("rec").Any()).Any().Block(
						getterBody(typeName, c)...,
					),
				}
				if pk[c.Name] {
					d[jen.Id("PK")] = jen.True()
				}
				vals.Values(d)
			}
		}),
	})
}

// getterBody returns the Get statements for a column. A zero auto-assigned
// key extracts as nil so the insert skips it and the database generates the
// key; nullable pointer fields dereference into a NULL-or-value any.
func getterBody(typeName string, c *schema.Column) []jen.Code {
	field := jen.Id("rec").Assert(jen.Op("*").Id(typeName + "Row")).Dot(fieldName(c.Name))
	switch {
	case c.AutoIncrement || c.Type.Kind == schema.KindSerial || c.Type.Kind == schema.KindBigSerial:
		return []jen.Code{
			jen.If(jen.Id("v").Op(":=").Add(field), jen.Id("v").Op("!=").Lit(0)).Block(
				jen.Return(jen.Id("v")),
			),
			jen.Return(jen.Nil()),
		}
	case c.Nullable:
		return []jen.Code{
			jen.If(jen.Id("v").Op(":=").Add(field), jen.Id("v").Op("!=").Nil()).Block(
				jen.Return(jen.Op("*").Id("v")),
			),
			jen.Return(jen.Nil()),
		}
	default:
		return []jen.Code{jen.Return(field)}
	}
}
