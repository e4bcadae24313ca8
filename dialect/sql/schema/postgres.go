package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/syssam/quarry/dialect"
	esql "github.com/syssam/quarry/dialect/sql"
)

type postgresDDL struct{}

func (postgresDDL) name() string { return dialect.Postgres }

func (postgresDDL) quote(ident string) string { return `"` + ident + `"` }

func (d postgresDDL) typeSQL(t ColumnType) (string, error) {
	switch t.Kind {
	case KindVarchar:
		if t.Size > 0 {
			return fmt.Sprintf("varchar(%d)", t.Size), nil
		}
		return "varchar", nil
	case KindChar:
		if t.Size > 0 {
			return fmt.Sprintf("char(%d)", t.Size), nil
		}
		return "char", nil
	case KindText:
		return "text", nil
	case KindInt:
		return "integer", nil
	case KindBigInt:
		return "bigint", nil
	case KindSmallInt:
		return "smallint", nil
	case KindBool:
		return "boolean", nil
	case KindDecimal:
		return fmt.Sprintf("numeric(%d,%d)", t.Precision, t.Scale), nil
	case KindFloat:
		return "real", nil
	case KindDouble:
		return "double precision", nil
	case KindDate:
		return "date", nil
	case KindTime:
		return "time", nil
	case KindTimestamp:
		return "timestamp", nil
	case KindTimestampTZ:
		return "timestamptz", nil
	case KindBinary, KindBlob:
		return "bytea", nil
	case KindJSON:
		return "json", nil
	case KindJSONB:
		return "jsonb", nil
	case KindUUID:
		return "uuid", nil
	case KindSerial:
		return "serial", nil
	case KindBigSerial:
		return "bigserial", nil
	case KindEnum:
		return d.quote(t.EnumName), nil
	default:
		return "", fmt.Errorf("schema: postgres: unsupported column type %q", t.Kind)
	}
}

func (d postgresDDL) columnSQL(c *Column) (string, error) {
	typ := c.Type
	// The auto-increment flag promotes plain integers to their serial form.
	if c.AutoIncrement {
		switch typ.Kind {
		case KindInt:
			typ = Serial()
		case KindBigInt:
			typ = BigSerial()
		}
	}
	ts, err := d.typeSQL(typ)
	if err != nil {
		return "", err
	}
	return d.quote(c.Name) + " " + ts + columnConstraints(c), nil
}

// enumDecls declares each referenced enum type idempotently. CREATE TYPE has
// no IF NOT EXISTS form, so the declaration is guarded by a catalog lookup.
func (d postgresDDL) enumDecls(columns []*Column) []string {
	var stmts []string
	seen := make(map[string]bool)
	for _, c := range columns {
		if c.Type.Kind != KindEnum || seen[c.Type.EnumName] {
			continue
		}
		seen[c.Type.EnumName] = true
		values := make([]string, len(c.Type.EnumValues))
		for i, v := range c.Type.EnumValues {
			values[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
		}
		stmts = append(stmts, fmt.Sprintf(
			"DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = '%s') THEN CREATE TYPE %s AS ENUM (%s); END IF; END $$",
			c.Type.EnumName, d.quote(c.Type.EnumName), strings.Join(values, ", "),
		))
	}
	return stmts
}

func (postgresDDL) inlineForeignKeys() bool { return false }

func (d postgresDDL) renameTable(op *RenameTable) []string {
	return []string{"ALTER TABLE " + d.quote(op.From) + " RENAME TO " + d.quote(op.To)}
}

// alterColumn emits three independent statements: type, nullability and
// default. Postgres cannot combine them into one ALTER COLUMN action.
func (d postgresDDL) alterColumn(op *AlterColumn) ([]string, error) {
	ts, err := d.typeSQL(op.Column.Type)
	if err != nil {
		return nil, err
	}
	prefix := "ALTER TABLE " + d.quote(op.Table) + " ALTER COLUMN " + d.quote(op.Column.Name)
	stmts := []string{prefix + " TYPE " + ts}
	if op.Column.Nullable {
		stmts = append(stmts, prefix+" DROP NOT NULL")
	} else {
		stmts = append(stmts, prefix+" SET NOT NULL")
	}
	if op.Column.Default != nil {
		stmts = append(stmts, prefix+" SET DEFAULT "+defaultSQL(op.Column.Default))
	} else {
		stmts = append(stmts, prefix+" DROP DEFAULT")
	}
	return stmts, nil
}

func (d postgresDDL) addPrimaryKey(op *AddPrimaryKey) ([]string, error) {
	return []string{"ALTER TABLE " + d.quote(op.Table) + " ADD PRIMARY KEY (" + quoteJoin(d, op.Columns) + ")"}, nil
}

func (d postgresDDL) dropPrimaryKey(op *DropPrimaryKey) ([]string, error) {
	return []string{"ALTER TABLE " + d.quote(op.Table) + " DROP CONSTRAINT " + d.quote(op.Table+"_pkey")}, nil
}

func (d postgresDDL) dropForeignKey(op *DropForeignKey) ([]string, error) {
	return []string{"ALTER TABLE " + d.quote(op.Table) + " DROP CONSTRAINT " + d.quote(op.Symbol)}, nil
}

func (d postgresDDL) dropIndex(op *DropIndex) []string {
	return []string{"DROP INDEX " + d.quote(op.Name)}
}

func (d postgresDDL) historyDDL(table string) string {
	return "CREATE TABLE IF NOT EXISTS " + d.quote(table) + ` ("id" bigserial NOT NULL PRIMARY KEY, "version" integer NOT NULL, "timestamp" bigint NOT NULL, "description" varchar(255) NOT NULL, "checksum" char(64) NOT NULL, "executed_at" bigint NOT NULL, "execution_time" bigint NOT NULL, "status" varchar(16) NOT NULL, "error" text NULL)`
}

// tableNames lists the base tables of the given schema, history table
// excluded by the caller.
func (postgresDDL) tableNames(ctx context.Context, conn dialect.ExecQuerier, schemaName string) ([]string, error) {
	rows := &esql.Rows{}
	query := "SELECT table_name FROM information_schema.tables WHERE table_schema = $1 AND table_type = 'BASE TABLE' ORDER BY table_name"
	if err := conn.Query(ctx, query, []any{schemaName}, rows); err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStrings(rows)
}

func (d postgresDDL) table(ctx context.Context, conn dialect.ExecQuerier, schemaName, name string) (*Table, error) {
	t := NewTable(name)
	if err := d.columns(ctx, conn, schemaName, t); err != nil {
		return nil, err
	}
	if err := d.primaryKey(ctx, conn, schemaName, t); err != nil {
		return nil, err
	}
	if err := d.foreignKeys(ctx, conn, schemaName, t); err != nil {
		return nil, err
	}
	if err := d.indexes(ctx, conn, schemaName, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (d postgresDDL) columns(ctx context.Context, conn dialect.ExecQuerier, schemaName string, t *Table) error {
	rows := &esql.Rows{}
	query := `SELECT column_name, data_type, udt_name, is_nullable, column_default, COALESCE(character_maximum_length, 0), COALESCE(numeric_precision, 0), COALESCE(numeric_scale, 0) FROM information_schema.columns WHERE table_schema = $1 AND table_name = $2 ORDER BY ordinal_position`
	if err := conn.Query(ctx, query, []any{schemaName, t.Name}, rows); err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			name, dataType, udt, nullable string
			defaultVal                    esql.NullString
			size, precision, scale        int
		)
		if err := rows.Scan(&name, &dataType, &udt, &nullable, &defaultVal, &size, &precision, &scale); err != nil {
			return err
		}
		c := &Column{
			Name:     name,
			Type:     pgColumnType(dataType, udt, size, precision, scale),
			Nullable: nullable == "YES",
		}
		if defaultVal.Valid {
			// Serial columns report their sequence default.
			if strings.HasPrefix(defaultVal.String, "nextval(") {
				c.AutoIncrement = true
			} else {
				c.Default = strings.TrimSuffix(strings.TrimPrefix(defaultVal.String, "'"), "'::"+udt)
			}
		}
		t.AddColumn(c)
	}
	return rows.Err()
}

// pgColumnType maps a native type to the logical model, falling back to
// varchar for unrecognized names so introspected schemas always load.
func pgColumnType(dataType, udt string, size, precision, scale int) ColumnType {
	switch dataType {
	case "character varying":
		return ColumnType{Kind: KindVarchar, Size: size}
	case "character":
		return ColumnType{Kind: KindChar, Size: size}
	case "text":
		return Text()
	case "integer":
		return Int()
	case "bigint":
		return BigInt()
	case "smallint":
		return SmallInt()
	case "boolean":
		return Bool()
	case "numeric":
		return Decimal(precision, scale)
	case "real":
		return Float()
	case "double precision":
		return Double()
	case "date":
		return Date()
	case "time without time zone":
		return Time()
	case "timestamp without time zone":
		return Timestamp()
	case "timestamp with time zone":
		return TimestampTZ()
	case "bytea":
		return Blob()
	case "json":
		return JSON()
	case "jsonb":
		return JSONB()
	case "uuid":
		return UUID()
	case "USER-DEFINED":
		return ColumnType{Kind: KindEnum, EnumName: udt}
	default:
		return ColumnType{Kind: KindVarchar, Size: size}
	}
}

func (postgresDDL) primaryKey(ctx context.Context, conn dialect.ExecQuerier, schemaName string, t *Table) error {
	rows := &esql.Rows{}
	query := `SELECT kcu.column_name FROM information_schema.table_constraints tc JOIN information_schema.key_column_usage kcu ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema WHERE tc.table_schema = $1 AND tc.table_name = $2 AND tc.constraint_type = 'PRIMARY KEY' ORDER BY kcu.ordinal_position`
	if err := conn.Query(ctx, query, []any{schemaName, t.Name}, rows); err != nil {
		return err
	}
	defer rows.Close()
	pk, err := scanStrings(rows)
	if err != nil {
		return err
	}
	t.PrimaryKey = pk
	return nil
}

func (postgresDDL) foreignKeys(ctx context.Context, conn dialect.ExecQuerier, schemaName string, t *Table) error {
	rows := &esql.Rows{}
	query := `SELECT tc.constraint_name, kcu.column_name, ccu.table_name, ccu.column_name, rc.delete_rule, rc.update_rule FROM information_schema.table_constraints tc JOIN information_schema.key_column_usage kcu ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema JOIN information_schema.constraint_column_usage ccu ON tc.constraint_name = ccu.constraint_name AND tc.table_schema = ccu.table_schema JOIN information_schema.referential_constraints rc ON tc.constraint_name = rc.constraint_name AND tc.table_schema = rc.constraint_schema WHERE tc.table_schema = $1 AND tc.table_name = $2 AND tc.constraint_type = 'FOREIGN KEY' ORDER BY tc.constraint_name`
	if err := conn.Query(ctx, query, []any{schemaName, t.Name}, rows); err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var symbol, column, refTable, refColumn, delRule, updRule string
		if err := rows.Scan(&symbol, &column, &refTable, &refColumn, &delRule, &updRule); err != nil {
			return err
		}
		t.AddForeignKey(&ForeignKey{
			Symbol:    symbol,
			Column:    column,
			RefTable:  refTable,
			RefColumn: refColumn,
			OnDelete:  ReferenceOption(delRule),
			OnUpdate:  ReferenceOption(updRule),
		})
	}
	return rows.Err()
}

func (postgresDDL) indexes(ctx context.Context, conn dialect.ExecQuerier, schemaName string, t *Table) error {
	rows := &esql.Rows{}
	query := `SELECT i.relname, a.attname, ix.indisunique FROM pg_class c JOIN pg_index ix ON c.oid = ix.indrelid JOIN pg_class i ON i.oid = ix.indexrelid JOIN pg_attribute a ON a.attrelid = c.oid AND a.attnum = ANY(ix.indkey) JOIN pg_namespace n ON n.oid = c.relnamespace WHERE n.nspname = $1 AND c.relname = $2 AND NOT ix.indisprimary ORDER BY i.relname, array_position(ix.indkey, a.attnum)`
	if err := conn.Query(ctx, query, []any{schemaName, t.Name}, rows); err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			name, column string
			unique       bool
		)
		if err := rows.Scan(&name, &column, &unique); err != nil {
			return err
		}
		if idx, ok := t.Index(name); ok {
			idx.Columns = append(idx.Columns, column)
			continue
		}
		t.Indexes = append(t.Indexes, &Index{Name: name, Columns: []string{column}, Unique: unique})
	}
	return rows.Err()
}

func scanStrings(rows *esql.Rows) ([]string, error) {
	var values []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		values = append(values, s)
	}
	return values, rows.Err()
}
