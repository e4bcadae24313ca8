package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/syssam/quarry/dialect"
	esql "github.com/syssam/quarry/dialect/sql"
)

type mysqlDDL struct{}

func (mysqlDDL) name() string { return dialect.MySQL }

func (mysqlDDL) quote(ident string) string { return "`" + ident + "`" }

func (mysqlDDL) typeSQL(t ColumnType) (string, error) {
	switch t.Kind {
	case KindVarchar:
		if t.Size > 0 {
			return fmt.Sprintf("varchar(%d)", t.Size), nil
		}
		return "varchar(255)", nil
	case KindChar:
		if t.Size > 0 {
			return fmt.Sprintf("char(%d)", t.Size), nil
		}
		return "char", nil
	case KindText:
		return "text", nil
	case KindInt, KindSerial:
		return "int", nil
	case KindBigInt, KindBigSerial:
		return "bigint", nil
	case KindSmallInt:
		return "smallint", nil
	case KindBool:
		return "boolean", nil
	case KindDecimal:
		return fmt.Sprintf("decimal(%d,%d)", t.Precision, t.Scale), nil
	case KindFloat:
		return "float", nil
	case KindDouble:
		return "double", nil
	case KindDate:
		return "date", nil
	case KindTime:
		return "time", nil
	// MySQL has no timestamp-with-zone type; values normalize to UTC.
	case KindTimestamp, KindTimestampTZ:
		return "timestamp", nil
	case KindBinary:
		if t.Size > 0 {
			return fmt.Sprintf("binary(%d)", t.Size), nil
		}
		return "blob", nil
	case KindBlob:
		return "blob", nil
	case KindJSON, KindJSONB:
		return "json", nil
	case KindUUID:
		return "char(36)", nil
	case KindEnum:
		values := make([]string, len(t.EnumValues))
		for i, v := range t.EnumValues {
			values[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
		}
		return "enum(" + strings.Join(values, ", ") + ")", nil
	default:
		return "", fmt.Errorf("schema: mysql: unsupported column type %q", t.Kind)
	}
}

func (d mysqlDDL) columnSQL(c *Column) (string, error) {
	ts, err := d.typeSQL(c.Type)
	if err != nil {
		return "", err
	}
	def := d.quote(c.Name) + " " + ts + columnConstraints(c)
	if c.AutoIncrement || c.Type.Kind == KindSerial || c.Type.Kind == KindBigSerial {
		def += " AUTO_INCREMENT"
	}
	return def, nil
}

func (mysqlDDL) enumDecls([]*Column) []string { return nil }

func (mysqlDDL) inlineForeignKeys() bool { return false }

func (d mysqlDDL) renameTable(op *RenameTable) []string {
	return []string{"RENAME TABLE " + d.quote(op.From) + " TO " + d.quote(op.To)}
}

// alterColumn emits a single MODIFY COLUMN carrying the full desired
// definition, since MySQL replaces the whole column definition at once.
func (d mysqlDDL) alterColumn(op *AlterColumn) ([]string, error) {
	def, err := d.columnSQL(op.Column)
	if err != nil {
		return nil, err
	}
	return []string{"ALTER TABLE " + d.quote(op.Table) + " MODIFY COLUMN " + def}, nil
}

func (d mysqlDDL) addPrimaryKey(op *AddPrimaryKey) ([]string, error) {
	return []string{"ALTER TABLE " + d.quote(op.Table) + " ADD PRIMARY KEY (" + quoteJoin(d, op.Columns) + ")"}, nil
}

func (d mysqlDDL) dropPrimaryKey(op *DropPrimaryKey) ([]string, error) {
	return []string{"ALTER TABLE " + d.quote(op.Table) + " DROP PRIMARY KEY"}, nil
}

func (d mysqlDDL) dropForeignKey(op *DropForeignKey) ([]string, error) {
	return []string{"ALTER TABLE " + d.quote(op.Table) + " DROP FOREIGN KEY " + d.quote(op.Symbol)}, nil
}

func (d mysqlDDL) dropIndex(op *DropIndex) []string {
	return []string{"DROP INDEX " + d.quote(op.Name) + " ON " + d.quote(op.Table)}
}

func (d mysqlDDL) historyDDL(table string) string {
	return "CREATE TABLE IF NOT EXISTS " + d.quote(table) + " (`id` bigint NOT NULL AUTO_INCREMENT PRIMARY KEY, `version` int NOT NULL, `timestamp` bigint NOT NULL, `description` varchar(255) NOT NULL, `checksum` char(64) NOT NULL, `executed_at` bigint NOT NULL, `execution_time` bigint NOT NULL, `status` varchar(16) NOT NULL, `error` text NULL)"
}

func (mysqlDDL) tableNames(ctx context.Context, conn dialect.ExecQuerier, schemaName string) ([]string, error) {
	rows := &esql.Rows{}
	query := "SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME"
	if err := conn.Query(ctx, query, []any{schemaName}, rows); err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStrings(rows)
}

func (d mysqlDDL) table(ctx context.Context, conn dialect.ExecQuerier, schemaName, name string) (*Table, error) {
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

func (d mysqlDDL) columns(ctx context.Context, conn dialect.ExecQuerier, schemaName string, t *Table) error {
	rows := &esql.Rows{}
	query := "SELECT COLUMN_NAME, DATA_TYPE, COLUMN_TYPE, IS_NULLABLE, COLUMN_DEFAULT, COALESCE(CHARACTER_MAXIMUM_LENGTH, 0), COALESCE(NUMERIC_PRECISION, 0), COALESCE(NUMERIC_SCALE, 0), EXTRA FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? ORDER BY ORDINAL_POSITION"
	if err := conn.Query(ctx, query, []any{schemaName, t.Name}, rows); err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			name, dataType, columnType, nullable, extra string
			defaultVal                                   esql.NullString
			size, precision, scale                       int
		)
		if err := rows.Scan(&name, &dataType, &columnType, &nullable, &defaultVal, &size, &precision, &scale, &extra); err != nil {
			return err
		}
		c := &Column{
			Name:          name,
			Type:          mysqlColumnType(dataType, columnType, size, precision, scale),
			Nullable:      nullable == "YES",
			AutoIncrement: strings.Contains(extra, "auto_increment"),
		}
		if defaultVal.Valid && !c.AutoIncrement {
			c.Default = defaultVal.String
		}
		t.AddColumn(c)
	}
	return rows.Err()
}

func mysqlColumnType(dataType, columnType string, size, precision, scale int) ColumnType {
	switch dataType {
	case "varchar":
		return ColumnType{Kind: KindVarchar, Size: size}
	case "char":
		return ColumnType{Kind: KindChar, Size: size}
	case "text", "mediumtext", "longtext":
		return Text()
	case "int":
		return Int()
	case "bigint":
		return BigInt()
	case "smallint":
		return SmallInt()
	case "tinyint":
		// tinyint(1) is the storage form of boolean.
		if strings.HasPrefix(columnType, "tinyint(1)") {
			return Bool()
		}
		return SmallInt()
	case "decimal":
		return Decimal(precision, scale)
	case "float":
		return Float()
	case "double":
		return Double()
	case "date":
		return Date()
	case "time":
		return Time()
	case "timestamp", "datetime":
		return Timestamp()
	case "binary", "varbinary":
		return Binary(size)
	case "blob", "mediumblob", "longblob":
		return Blob()
	case "json":
		return JSON()
	case "enum":
		return ColumnType{Kind: KindEnum, EnumValues: parseEnumValues(columnType)}
	default:
		return ColumnType{Kind: KindVarchar, Size: size}
	}
}

// parseEnumValues extracts the value list of a COLUMN_TYPE such as
// enum('active','disabled').
func parseEnumValues(columnType string) []string {
	start, end := strings.IndexByte(columnType, '('), strings.LastIndexByte(columnType, ')')
	if start < 0 || end <= start {
		return nil
	}
	parts := strings.Split(columnType[start+1:end], ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		values = append(values, strings.ReplaceAll(strings.Trim(strings.TrimSpace(p), "'"), "''", "'"))
	}
	return values
}

func (mysqlDDL) primaryKey(ctx context.Context, conn dialect.ExecQuerier, schemaName string, t *Table) error {
	rows := &esql.Rows{}
	query := "SELECT COLUMN_NAME FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND CONSTRAINT_NAME = 'PRIMARY' ORDER BY ORDINAL_POSITION"
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

func (mysqlDDL) foreignKeys(ctx context.Context, conn dialect.ExecQuerier, schemaName string, t *Table) error {
	rows := &esql.Rows{}
	query := "SELECT kcu.CONSTRAINT_NAME, kcu.COLUMN_NAME, kcu.REFERENCED_TABLE_NAME, kcu.REFERENCED_COLUMN_NAME, rc.DELETE_RULE, rc.UPDATE_RULE FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu JOIN INFORMATION_SCHEMA.REFERENTIAL_CONSTRAINTS rc ON kcu.CONSTRAINT_NAME = rc.CONSTRAINT_NAME AND kcu.CONSTRAINT_SCHEMA = rc.CONSTRAINT_SCHEMA WHERE kcu.TABLE_SCHEMA = ? AND kcu.TABLE_NAME = ? AND kcu.REFERENCED_TABLE_NAME IS NOT NULL ORDER BY kcu.CONSTRAINT_NAME"
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

func (mysqlDDL) indexes(ctx context.Context, conn dialect.ExecQuerier, schemaName string, t *Table) error {
	rows := &esql.Rows{}
	query := "SELECT INDEX_NAME, COLUMN_NAME, NON_UNIQUE FROM INFORMATION_SCHEMA.STATISTICS WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND INDEX_NAME <> 'PRIMARY' ORDER BY INDEX_NAME, SEQ_IN_INDEX"
	if err := conn.Query(ctx, query, []any{schemaName, t.Name}, rows); err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			name, column string
			nonUnique    int
		)
		if err := rows.Scan(&name, &column, &nonUnique); err != nil {
			return err
		}
		if idx, ok := t.Index(name); ok {
			idx.Columns = append(idx.Columns, column)
			continue
		}
		t.Indexes = append(t.Indexes, &Index{Name: name, Columns: []string{column}, Unique: nonUnique == 0})
	}
	return rows.Err()
}
