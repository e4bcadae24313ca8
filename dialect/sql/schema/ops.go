package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Operation is a single schema change. The set of operations is closed; the
// DDL renderers switch over all of them exhaustively, and each operation
// serializes to a canonical fingerprint that feeds the migration checksum.
type Operation interface {
	// fingerprint returns the canonical textual form of the operation. It
	// must stay byte-stable across releases and platforms, otherwise
	// checksums of already-applied migrations stop matching.
	fingerprint() string
}

type (
	// CreateTable creates a table with its columns, primary key, unique
	// constraints, foreign keys and indexes.
	CreateTable struct {
		Table *Table
	}

	// DropTable drops a table.
	DropTable struct {
		Name string
	}

	// RenameTable renames a table.
	RenameTable struct {
		From string
		To   string
	}

	// AddColumn adds a column to an existing table.
	AddColumn struct {
		Table  string
		Column *Column
	}

	// DropColumn drops a column.
	DropColumn struct {
		Table  string
		Column string
	}

	// AlterColumn changes a column to the given desired definition. The
	// renderer derives the type, nullability and default statements from it.
	AlterColumn struct {
		Table  string
		Column *Column
	}

	// RenameColumn renames a column.
	RenameColumn struct {
		Table string
		From  string
		To    string
	}

	// AddPrimaryKey adds a primary-key constraint.
	AddPrimaryKey struct {
		Table   string
		Columns []string
	}

	// DropPrimaryKey drops the primary-key constraint.
	DropPrimaryKey struct {
		Table string
	}

	// AddForeignKey adds a foreign-key constraint.
	AddForeignKey struct {
		Table      string
		ForeignKey *ForeignKey
	}

	// DropForeignKey drops a foreign-key constraint by its symbol.
	DropForeignKey struct {
		Table  string
		Symbol string
	}

	// CreateIndex creates an index.
	CreateIndex struct {
		Table string
		Index *Index
	}

	// DropIndex drops an index.
	DropIndex struct {
		Table string
		Name  string
	}

	// RawSQL executes caller-supplied SQL verbatim.
	RawSQL struct {
		SQL string
	}
)

func (op *CreateTable) fingerprint() string {
	var sb strings.Builder
	sb.WriteString("create_table " + op.Table.Name + " (")
	for i, c := range op.Table.Columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(columnFingerprint(c))
	}
	sb.WriteString(")")
	if len(op.Table.PrimaryKey) > 0 {
		sb.WriteString(" pk(" + strings.Join(op.Table.PrimaryKey, ",") + ")")
	}
	for _, u := range op.Table.Uniques {
		sb.WriteString(" unique " + u.Name + "(" + strings.Join(u.Columns, ",") + ")")
	}
	for _, fk := range op.Table.ForeignKeys {
		sb.WriteString(" " + fkFingerprint(fk))
	}
	for _, idx := range op.Table.Indexes {
		sb.WriteString(" " + indexFingerprint(idx))
	}
	return sb.String()
}

func (op *DropTable) fingerprint() string {
	return "drop_table " + op.Name
}

func (op *RenameTable) fingerprint() string {
	return "rename_table " + op.From + " -> " + op.To
}

func (op *AddColumn) fingerprint() string {
	return "add_column " + op.Table + "." + columnFingerprint(op.Column)
}

func (op *DropColumn) fingerprint() string {
	return "drop_column " + op.Table + "." + op.Column
}

func (op *AlterColumn) fingerprint() string {
	return "alter_column " + op.Table + "." + columnFingerprint(op.Column)
}

func (op *RenameColumn) fingerprint() string {
	return "rename_column " + op.Table + "." + op.From + " -> " + op.To
}

func (op *AddPrimaryKey) fingerprint() string {
	return "add_primary_key " + op.Table + "(" + strings.Join(op.Columns, ",") + ")"
}

func (op *DropPrimaryKey) fingerprint() string {
	return "drop_primary_key " + op.Table
}

func (op *AddForeignKey) fingerprint() string {
	return "add_foreign_key " + op.Table + " " + fkFingerprint(op.ForeignKey)
}

func (op *DropForeignKey) fingerprint() string {
	return "drop_foreign_key " + op.Table + "." + op.Symbol
}

func (op *CreateIndex) fingerprint() string {
	return "create_index " + op.Table + " " + indexFingerprint(op.Index)
}

func (op *DropIndex) fingerprint() string {
	return "drop_index " + op.Table + "." + op.Name
}

func (op *RawSQL) fingerprint() string {
	return "raw_sql " + op.SQL
}

func columnFingerprint(c *Column) string {
	var sb strings.Builder
	sb.WriteString(c.Name + " " + c.Type.String())
	if c.Nullable {
		sb.WriteString(" null")
	}
	if c.Unique {
		sb.WriteString(" unique")
	}
	if c.AutoIncrement {
		sb.WriteString(" autoincrement")
	}
	if c.Default != nil {
		fmt.Fprintf(&sb, " default=%v", c.Default)
	}
	return sb.String()
}

func fkFingerprint(fk *ForeignKey) string {
	var sb strings.Builder
	sb.WriteString("fk " + fk.Symbol + " " + fk.Column + " -> " + fk.RefTable + "." + fk.RefColumn)
	if fk.OnDelete != "" {
		sb.WriteString(" ondelete=" + string(fk.OnDelete))
	}
	if fk.OnUpdate != "" {
		sb.WriteString(" onupdate=" + string(fk.OnUpdate))
	}
	return sb.String()
}

func indexFingerprint(idx *Index) string {
	s := "index " + idx.Name + "(" + strings.Join(idx.Columns, ",") + ")"
	if idx.Unique {
		s += " unique"
	}
	return s
}

// ChecksumOps returns the lowercase hexadecimal SHA-256 digest over the
// newline-joined fingerprints of the given operations.
func ChecksumOps(ops []Operation) string {
	fps := make([]string, len(ops))
	for i, op := range ops {
		fps[i] = op.fingerprint()
	}
	sum := sha256.Sum256([]byte(strings.Join(fps, "\n")))
	return hex.EncodeToString(sum[:])
}
