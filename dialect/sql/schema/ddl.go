package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/syssam/quarry/dialect"
)

// sqlDialect is the pluggable part of the DDL renderer: identifier quoting,
// the logical-to-native type table, and the operations whose syntax diverges
// between engines. Everything else renders through the shared code below.
type sqlDialect interface {
	name() string
	quote(ident string) string
	columnSQL(c *Column) (string, error)
	// enumDecls returns the statements declaring the enum types referenced
	// by the given columns. Dialects with inline enums return nil.
	enumDecls(columns []*Column) []string
	// inlineForeignKeys reports whether foreign keys must be part of the
	// CREATE TABLE body instead of separate ALTER TABLE statements.
	inlineForeignKeys() bool
	renameTable(op *RenameTable) []string
	alterColumn(op *AlterColumn) ([]string, error)
	addPrimaryKey(op *AddPrimaryKey) ([]string, error)
	dropPrimaryKey(op *DropPrimaryKey) ([]string, error)
	dropForeignKey(op *DropForeignKey) ([]string, error)
	dropIndex(op *DropIndex) []string
	// historyDDL returns the idempotent creation statement of the migration
	// history table.
	historyDDL(table string) string
}

func ddlFor(name string) (sqlDialect, error) {
	switch name {
	case dialect.Postgres:
		return &postgresDDL{}, nil
	case dialect.MySQL:
		return &mysqlDDL{}, nil
	case dialect.SQLite:
		return &sqliteDDL{}, nil
	default:
		return nil, fmt.Errorf("schema: unsupported dialect %q", name)
	}
}

// Plan renders the operation list to an ordered list of executable DDL
// statements for the given dialect. It is a pure function: identical input
// always yields identical statements, and no connection is touched.
func Plan(dialectName string, ops []Operation) ([]string, error) {
	d, err := ddlFor(dialectName)
	if err != nil {
		return nil, err
	}
	var stmts []string
	for _, op := range ops {
		s, err := renderOp(d, op)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s...)
	}
	return stmts, nil
}

// RenderOperation renders a single operation for the given dialect.
func RenderOperation(dialectName string, op Operation) ([]string, error) {
	d, err := ddlFor(dialectName)
	if err != nil {
		return nil, err
	}
	return renderOp(d, op)
}

func renderOp(d sqlDialect, op Operation) ([]string, error) {
	switch op := op.(type) {
	case *CreateTable:
		return createTableStmts(d, op.Table)
	case *DropTable:
		return []string{"DROP TABLE " + d.quote(op.Name)}, nil
	case *RenameTable:
		return d.renameTable(op), nil
	case *AddColumn:
		def, err := d.columnSQL(op.Column)
		if err != nil {
			return nil, err
		}
		stmts := d.enumDecls([]*Column{op.Column})
		return append(stmts, "ALTER TABLE "+d.quote(op.Table)+" ADD COLUMN "+def), nil
	case *DropColumn:
		return []string{"ALTER TABLE " + d.quote(op.Table) + " DROP COLUMN " + d.quote(op.Column)}, nil
	case *AlterColumn:
		return d.alterColumn(op)
	case *RenameColumn:
		return []string{"ALTER TABLE " + d.quote(op.Table) + " RENAME COLUMN " + d.quote(op.From) + " TO " + d.quote(op.To)}, nil
	case *AddPrimaryKey:
		return d.addPrimaryKey(op)
	case *DropPrimaryKey:
		return d.dropPrimaryKey(op)
	case *AddForeignKey:
		if d.inlineForeignKeys() {
			return nil, &UnsupportedError{Dialect: d.name(), Feature: "adding a foreign key to an existing table"}
		}
		return []string{addForeignKeyStmt(d, op.Table, op.ForeignKey)}, nil
	case *DropForeignKey:
		return d.dropForeignKey(op)
	case *CreateIndex:
		return []string{createIndexStmt(d, op.Table, op.Index)}, nil
	case *DropIndex:
		return d.dropIndex(op), nil
	case *RawSQL:
		return []string{op.SQL}, nil
	default:
		return nil, fmt.Errorf("schema: unsupported operation %T", op)
	}
}

// createTableStmts renders a CreateTable in a fixed order: enum declarations
// first, then the table body with its primary key and named uniques, then
// one ALTER TABLE per foreign key, then one CREATE INDEX per index. The
// ordering guarantees referenced tables and types exist before a constraint
// names them.
func createTableStmts(d sqlDialect, t *Table) ([]string, error) {
	stmts := d.enumDecls(t.Columns)
	var body []string
	for _, c := range t.Columns {
		def, err := d.columnSQL(c)
		if err != nil {
			return nil, err
		}
		body = append(body, def)
	}
	if len(t.PrimaryKey) > 0 {
		body = append(body, "PRIMARY KEY ("+quoteJoin(d, t.PrimaryKey)+")")
	}
	for _, u := range t.Uniques {
		body = append(body, "CONSTRAINT "+d.quote(u.Name)+" UNIQUE ("+quoteJoin(d, u.Columns)+")")
	}
	if d.inlineForeignKeys() {
		for _, fk := range t.ForeignKeys {
			body = append(body, fkClause(d, fk))
		}
	}
	stmts = append(stmts, "CREATE TABLE "+d.quote(t.Name)+" ("+strings.Join(body, ", ")+")")
	if !d.inlineForeignKeys() {
		for _, fk := range t.ForeignKeys {
			stmts = append(stmts, addForeignKeyStmt(d, t.Name, fk))
		}
	}
	for _, idx := range t.Indexes {
		stmts = append(stmts, createIndexStmt(d, t.Name, idx))
	}
	return stmts, nil
}

// fkClause renders the constraint body shared by inline and ALTER TABLE
// foreign keys. An absent cascade action omits the clause, deferring to the
// engine's native default.
func fkClause(d sqlDialect, fk *ForeignKey) string {
	var sb strings.Builder
	sb.WriteString("CONSTRAINT " + d.quote(fk.Symbol))
	sb.WriteString(" FOREIGN KEY (" + d.quote(fk.Column) + ")")
	sb.WriteString(" REFERENCES " + d.quote(fk.RefTable) + " (" + d.quote(fk.RefColumn) + ")")
	if fk.OnDelete != "" {
		sb.WriteString(" ON DELETE " + string(fk.OnDelete))
	}
	if fk.OnUpdate != "" {
		sb.WriteString(" ON UPDATE " + string(fk.OnUpdate))
	}
	return sb.String()
}

func addForeignKeyStmt(d sqlDialect, table string, fk *ForeignKey) string {
	return "ALTER TABLE " + d.quote(table) + " ADD " + fkClause(d, fk)
}

func createIndexStmt(d sqlDialect, table string, idx *Index) string {
	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}
	return "CREATE " + unique + "INDEX " + d.quote(idx.Name) + " ON " + d.quote(table) + " (" + quoteJoin(d, idx.Columns) + ")"
}

func quoteJoin(d sqlDialect, idents []string) string {
	quoted := make([]string, len(idents))
	for i, s := range idents {
		quoted[i] = d.quote(s)
	}
	return strings.Join(quoted, ", ")
}

// defaultSQL renders a column default value as a SQL literal. String defaults
// starting with a word character and ending in ")", plus the keyword
// CURRENT_TIMESTAMP, are treated as function expressions and emitted verbatim.
func defaultSQL(v any) string {
	switch v := v.(type) {
	case string:
		if isFuncExpr(v) || strings.EqualFold(v, "CURRENT_TIMESTAMP") {
			return v
		}
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// isFuncExpr reports whether a string default is a call expression such as
// "now()" or "uuid_generate_v4()".
func isFuncExpr(s string) bool {
	if len(s) < 3 || !strings.HasSuffix(s, ")") {
		return false
	}
	c := s[0]
	return c == '_' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

// columnConstraints renders the nullability, unique and default suffix
// shared by all dialects.
func columnConstraints(c *Column) string {
	var sb strings.Builder
	if c.Nullable {
		sb.WriteString(" NULL")
	} else {
		sb.WriteString(" NOT NULL")
	}
	if c.Unique {
		sb.WriteString(" UNIQUE")
	}
	if c.Default != nil {
		sb.WriteString(" DEFAULT " + defaultSQL(c.Default))
	}
	return sb.String()
}
