package schema

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/syssam/quarry/dialect"
	esql "github.com/syssam/quarry/dialect/sql"
)

type sqliteDDL struct{}

func (sqliteDDL) name() string { return dialect.SQLite }

func (sqliteDDL) quote(ident string) string { return "`" + ident + "`" }

// typeSQL keeps the declared type close to the logical name. SQLite stores
// the declared text verbatim, so PRAGMA table_info round-trips the logical
// type without a lossy native mapping.
func (sqliteDDL) typeSQL(t ColumnType) (string, error) {
	switch t.Kind {
	case KindVarchar, KindChar, KindBinary, KindDecimal:
		return t.String(), nil
	case KindInt, KindSerial:
		return "integer", nil
	case KindBigInt, KindBigSerial:
		return "bigint", nil
	case KindSmallInt:
		return "smallint", nil
	case KindBool:
		return "bool", nil
	case KindText:
		return "text", nil
	case KindFloat:
		return "float", nil
	case KindDouble:
		return "double", nil
	case KindDate, KindTime, KindTimestamp, KindTimestampTZ, KindJSON, KindJSONB, KindUUID:
		return string(t.Kind), nil
	case KindEnum:
		// SQLite has no enum type; values degrade to text.
		return "text", nil
	default:
		return "", fmt.Errorf("schema: sqlite: unsupported column type %q", t.Kind)
	}
}

func (d sqliteDDL) columnSQL(c *Column) (string, error) {
	typ := c.Type
	// An integer declared as the single-column primary key aliases the
	// rowid, which auto-assigns on insert. No AUTOINCREMENT keyword needed.
	if c.AutoIncrement {
		switch typ.Kind {
		case KindInt, KindBigInt:
			typ = ColumnType{Kind: KindInt}
		}
	}
	ts, err := d.typeSQL(typ)
	if err != nil {
		return "", err
	}
	return d.quote(c.Name) + " " + ts + columnConstraints(c), nil
}

func (sqliteDDL) enumDecls([]*Column) []string { return nil }

// SQLite cannot add a foreign key to an existing table; constraints render
// inside the CREATE TABLE body.
func (sqliteDDL) inlineForeignKeys() bool { return true }

func (d sqliteDDL) renameTable(op *RenameTable) []string {
	return []string{"ALTER TABLE " + d.quote(op.From) + " RENAME TO " + d.quote(op.To)}
}

func (d sqliteDDL) alterColumn(*AlterColumn) ([]string, error) {
	return nil, &UnsupportedError{Dialect: d.name(), Feature: "altering a column"}
}

func (d sqliteDDL) addPrimaryKey(*AddPrimaryKey) ([]string, error) {
	return nil, &UnsupportedError{Dialect: d.name(), Feature: "adding a primary key to an existing table"}
}

func (d sqliteDDL) dropPrimaryKey(*DropPrimaryKey) ([]string, error) {
	return nil, &UnsupportedError{Dialect: d.name(), Feature: "dropping a primary key"}
}

func (d sqliteDDL) dropForeignKey(*DropForeignKey) ([]string, error) {
	return nil, &UnsupportedError{Dialect: d.name(), Feature: "dropping a foreign key"}
}

func (d sqliteDDL) dropIndex(op *DropIndex) []string {
	return []string{"DROP INDEX " + d.quote(op.Name)}
}

func (d sqliteDDL) historyDDL(table string) string {
	return "CREATE TABLE IF NOT EXISTS " + d.quote(table) + " (`id` integer NOT NULL PRIMARY KEY AUTOINCREMENT, `version` integer NOT NULL, `timestamp` bigint NOT NULL, `description` varchar(255) NOT NULL, `checksum` char(64) NOT NULL, `executed_at` bigint NOT NULL, `execution_time` bigint NOT NULL, `status` varchar(16) NOT NULL, `error` text NULL)"
}

func (sqliteDDL) tableNames(ctx context.Context, conn dialect.ExecQuerier, _ string) ([]string, error) {
	rows := &esql.Rows{}
	query := "SELECT `name` FROM sqlite_master WHERE `type` = 'table' AND `name` NOT LIKE 'sqlite_%' ORDER BY `name`"
	if err := conn.Query(ctx, query, []any{}, rows); err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStrings(rows)
}

func (d sqliteDDL) table(ctx context.Context, conn dialect.ExecQuerier, _, name string) (*Table, error) {
	t := NewTable(name)
	if err := d.columns(ctx, conn, t); err != nil {
		return nil, err
	}
	if err := d.foreignKeys(ctx, conn, t); err != nil {
		return nil, err
	}
	if err := d.indexes(ctx, conn, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (d sqliteDDL) columns(ctx context.Context, conn dialect.ExecQuerier, t *Table) error {
	rows := &esql.Rows{}
	// PRAGMA arguments cannot be bound; the table name is embedded.
	if err := conn.Query(ctx, "PRAGMA table_info("+d.quote(t.Name)+")", []any{}, rows); err != nil {
		return err
	}
	defer rows.Close()
	// pk reports the 1-based position of the column in the primary key.
	pk := make(map[int]string)
	for rows.Next() {
		var (
			cid, notNull, pkPos int
			name, typ           string
			defaultVal          esql.NullString
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pkPos); err != nil {
			return err
		}
		c := &Column{
			Name:     name,
			Type:     sqliteColumnType(typ),
			Nullable: notNull == 0,
		}
		if defaultVal.Valid {
			c.Default = strings.Trim(defaultVal.String, "'")
		}
		if pkPos > 0 {
			pk[pkPos] = name
			c.Nullable = false
		}
		t.AddColumn(c)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for i := 1; i <= len(pk); i++ {
		t.PrimaryKey = append(t.PrimaryKey, pk[i])
	}
	// A single integer primary key aliases the rowid and auto-assigns.
	if len(pk) == 1 {
		if c, ok := t.Column(pk[1]); ok && c.Type.Kind == KindInt {
			c.AutoIncrement = true
		}
	}
	return nil
}

// sqliteColumnType maps a declared type back to the logical model, with the
// usual varchar fallback for unrecognized declarations.
func sqliteColumnType(declared string) ColumnType {
	declared = strings.ToLower(strings.TrimSpace(declared))
	base, params := declared, ""
	if i := strings.IndexByte(declared, '('); i >= 0 && strings.HasSuffix(declared, ")") {
		base, params = declared[:i], declared[i+1:len(declared)-1]
	}
	switch base {
	case "varchar", "char", "binary":
		size, _ := strconv.Atoi(params)
		return ColumnType{Kind: Kind(base), Size: size}
	case "decimal", "numeric":
		p := strings.SplitN(params, ",", 2)
		precision, _ := strconv.Atoi(strings.TrimSpace(p[0]))
		scale := 0
		if len(p) == 2 {
			scale, _ = strconv.Atoi(strings.TrimSpace(p[1]))
		}
		return Decimal(precision, scale)
	case "text":
		return Text()
	case "int", "integer":
		return Int()
	case "bigint":
		return BigInt()
	case "smallint":
		return SmallInt()
	case "bool", "boolean":
		return Bool()
	case "float", "real":
		return Float()
	case "double":
		return Double()
	case "date":
		return Date()
	case "time":
		return Time()
	case "timestamp", "datetime":
		return Timestamp()
	case "timestamptz":
		return TimestampTZ()
	case "blob":
		return Blob()
	case "json":
		return JSON()
	case "jsonb":
		return JSONB()
	case "uuid":
		return UUID()
	default:
		return ColumnType{Kind: KindVarchar}
	}
}

func (d sqliteDDL) foreignKeys(ctx context.Context, conn dialect.ExecQuerier, t *Table) error {
	rows := &esql.Rows{}
	if err := conn.Query(ctx, "PRAGMA foreign_key_list("+d.quote(t.Name)+")", []any{}, rows); err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id, seq                                      int
			refTable, from, to, onUpdate, onDelete, match string
		)
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return err
		}
		t.AddForeignKey(&ForeignKey{
			// SQLite does not preserve constraint names; synthesize one.
			Symbol:    fmt.Sprintf("%s_%s_fkey", t.Name, from),
			Column:    from,
			RefTable:  refTable,
			RefColumn: to,
			OnDelete:  ReferenceOption(onDelete),
			OnUpdate:  ReferenceOption(onUpdate),
		})
	}
	return rows.Err()
}

func (d sqliteDDL) indexes(ctx context.Context, conn dialect.ExecQuerier, t *Table) error {
	rows := &esql.Rows{}
	if err := conn.Query(ctx, "PRAGMA index_list("+d.quote(t.Name)+")", []any{}, rows); err != nil {
		return err
	}
	type indexInfo struct {
		name   string
		unique bool
	}
	var list []indexInfo
	for rows.Next() {
		var (
			seq, unique, partial int
			name, origin         string
		)
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			rows.Close()
			return err
		}
		// Skip the implicit indexes backing PRIMARY KEY and UNIQUE columns.
		if origin != "c" || strings.HasPrefix(name, "sqlite_autoindex_") {
			continue
		}
		list = append(list, indexInfo{name: name, unique: unique == 1})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()
	for _, info := range list {
		cols := &esql.Rows{}
		if err := conn.Query(ctx, "PRAGMA index_info("+d.quote(info.name)+")", []any{}, cols); err != nil {
			return err
		}
		idx := &Index{Name: info.name, Unique: info.unique}
		for cols.Next() {
			var (
				seqno, cid int
				column     string
			)
			if err := cols.Scan(&seqno, &cid, &column); err != nil {
				cols.Close()
				return err
			}
			idx.Columns = append(idx.Columns, column)
		}
		if err := cols.Err(); err != nil {
			cols.Close()
			return err
		}
		cols.Close()
		t.Indexes = append(t.Indexes, idx)
	}
	return nil
}
