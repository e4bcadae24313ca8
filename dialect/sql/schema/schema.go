// Package schema contains the migration operation model, the dialect DDL
// renderers, the migration executor and the catalog introspector.
package schema

import (
	"fmt"
	"strings"
)

// Kind is the logical column type. The set is closed; every DDL renderer and
// the introspector's type mapping switch over all kinds.
type Kind string

// Logical column types.
const (
	KindVarchar     Kind = "varchar"
	KindChar        Kind = "char"
	KindText        Kind = "text"
	KindInt         Kind = "int"
	KindBigInt      Kind = "bigint"
	KindSmallInt    Kind = "smallint"
	KindBool        Kind = "bool"
	KindDecimal     Kind = "decimal"
	KindFloat       Kind = "float"
	KindDouble      Kind = "double"
	KindDate        Kind = "date"
	KindTime        Kind = "time"
	KindTimestamp   Kind = "timestamp"
	KindTimestampTZ Kind = "timestamptz"
	KindBinary      Kind = "binary"
	KindBlob        Kind = "blob"
	KindJSON        Kind = "json"
	KindJSONB       Kind = "jsonb"
	KindUUID        Kind = "uuid"
	KindSerial      Kind = "serial"
	KindBigSerial   Kind = "bigserial"
	KindEnum        Kind = "enum"
)

// ColumnType is a logical type with its parameters.
type ColumnType struct {
	Kind       Kind     `yaml:"kind" msgpack:"kind"`
	Size       int      `yaml:"size,omitempty" msgpack:"size,omitempty"`
	Precision  int      `yaml:"precision,omitempty" msgpack:"precision,omitempty"`
	Scale      int      `yaml:"scale,omitempty" msgpack:"scale,omitempty"`
	EnumName   string   `yaml:"enum_name,omitempty" msgpack:"enum_name,omitempty"`
	EnumValues []string `yaml:"enum_values,omitempty" msgpack:"enum_values,omitempty"`
}

// Varchar returns a variable-length string type of the given size.
func Varchar(size int) ColumnType { return ColumnType{Kind: KindVarchar, Size: size} }

// Char returns a fixed-length string type of the given size.
func Char(size int) ColumnType { return ColumnType{Kind: KindChar, Size: size} }

// Text returns an unbounded string type.
func Text() ColumnType { return ColumnType{Kind: KindText} }

// Int returns a 32-bit integer type.
func Int() ColumnType { return ColumnType{Kind: KindInt} }

// BigInt returns a 64-bit integer type.
func BigInt() ColumnType { return ColumnType{Kind: KindBigInt} }

// SmallInt returns a 16-bit integer type.
func SmallInt() ColumnType { return ColumnType{Kind: KindSmallInt} }

// Bool returns a boolean type.
func Bool() ColumnType { return ColumnType{Kind: KindBool} }

// Decimal returns an exact numeric type with the given precision and scale.
func Decimal(precision, scale int) ColumnType {
	return ColumnType{Kind: KindDecimal, Precision: precision, Scale: scale}
}

// Float returns a single-precision floating-point type.
func Float() ColumnType { return ColumnType{Kind: KindFloat} }

// Double returns a double-precision floating-point type.
func Double() ColumnType { return ColumnType{Kind: KindDouble} }

// Date returns a calendar-date type.
func Date() ColumnType { return ColumnType{Kind: KindDate} }

// Time returns a time-of-day type.
func Time() ColumnType { return ColumnType{Kind: KindTime} }

// Timestamp returns a timestamp type without time zone.
func Timestamp() ColumnType { return ColumnType{Kind: KindTimestamp} }

// TimestampTZ returns a timestamp type with time zone.
func TimestampTZ() ColumnType { return ColumnType{Kind: KindTimestampTZ} }

// Binary returns a fixed-length binary type. A zero size leaves the length
// to the dialect.
func Binary(size int) ColumnType { return ColumnType{Kind: KindBinary, Size: size} }

// Blob returns an unbounded binary type.
func Blob() ColumnType { return ColumnType{Kind: KindBlob} }

// JSON returns a textual JSON type.
func JSON() ColumnType { return ColumnType{Kind: KindJSON} }

// JSONB returns a binary JSON type. Falls back to JSON on dialects without
// a distinct binary representation.
func JSONB() ColumnType { return ColumnType{Kind: KindJSONB} }

// UUID returns a UUID type.
func UUID() ColumnType { return ColumnType{Kind: KindUUID} }

// Serial returns an auto-incrementing 32-bit integer type.
func Serial() ColumnType { return ColumnType{Kind: KindSerial} }

// BigSerial returns an auto-incrementing 64-bit integer type.
func BigSerial() ColumnType { return ColumnType{Kind: KindBigSerial} }

// Enum returns an enumeration type with the given name and values.
func Enum(name string, values ...string) ColumnType {
	return ColumnType{Kind: KindEnum, EnumName: name, EnumValues: values}
}

// String returns the canonical textual form of the type, e.g. "varchar(255)"
// or "decimal(10,2)". It is part of the checksum serialization and must stay
// stable across releases.
func (t ColumnType) String() string {
	switch t.Kind {
	case KindVarchar, KindChar, KindBinary:
		if t.Size > 0 {
			return fmt.Sprintf("%s(%d)", t.Kind, t.Size)
		}
		return string(t.Kind)
	case KindDecimal:
		return fmt.Sprintf("decimal(%d,%d)", t.Precision, t.Scale)
	case KindEnum:
		return fmt.Sprintf("enum(%s:%s)", t.EnumName, strings.Join(t.EnumValues, "|"))
	default:
		return string(t.Kind)
	}
}

// Equal reports whether two types are identical, parameters included.
func (t ColumnType) Equal(other ColumnType) bool {
	return t.String() == other.String()
}

// Column is a single column definition.
type Column struct {
	Name          string     `yaml:"name" msgpack:"name"`
	Type          ColumnType `yaml:"type" msgpack:"type"`
	Nullable      bool       `yaml:"nullable,omitempty" msgpack:"nullable,omitempty"`
	Unique        bool       `yaml:"unique,omitempty" msgpack:"unique,omitempty"`
	AutoIncrement bool       `yaml:"auto_increment,omitempty" msgpack:"auto_increment,omitempty"`
	Default       any        `yaml:"default,omitempty" msgpack:"default,omitempty"`
}

// ReferenceOption for foreign-key cascade actions.
type ReferenceOption string

// Reference options.
const (
	NoAction   ReferenceOption = "NO ACTION"
	Restrict   ReferenceOption = "RESTRICT"
	Cascade    ReferenceOption = "CASCADE"
	SetNull    ReferenceOption = "SET NULL"
	SetDefault ReferenceOption = "SET DEFAULT"
)

// ConstName returns the Go constant name of the reference option.
func (r ReferenceOption) ConstName() string {
	switch r {
	case NoAction:
		return "NoAction"
	case Restrict:
		return "Restrict"
	case Cascade:
		return "Cascade"
	case SetNull:
		return "SetNull"
	case SetDefault:
		return "SetDefault"
	default:
		return string(r)
	}
}

// ForeignKey is a single-column foreign-key constraint. Columns are
// referenced by name so definitions stay serializable and comparable to
// introspected schemas.
type ForeignKey struct {
	Symbol    string          `yaml:"symbol" msgpack:"symbol"`
	Column    string          `yaml:"column" msgpack:"column"`
	RefTable  string          `yaml:"ref_table" msgpack:"ref_table"`
	RefColumn string          `yaml:"ref_column" msgpack:"ref_column"`
	OnDelete  ReferenceOption `yaml:"on_delete,omitempty" msgpack:"on_delete,omitempty"`
	OnUpdate  ReferenceOption `yaml:"on_update,omitempty" msgpack:"on_update,omitempty"`
}

// Index is a named index over an ordered column list.
type Index struct {
	Name    string   `yaml:"name" msgpack:"name"`
	Columns []string `yaml:"columns" msgpack:"columns"`
	Unique  bool     `yaml:"unique,omitempty" msgpack:"unique,omitempty"`
}

// Unique is a named table-level unique constraint.
type Unique struct {
	Name    string   `yaml:"name" msgpack:"name"`
	Columns []string `yaml:"columns" msgpack:"columns"`
}

// Table is a table definition. It is both the input of CreateTable and the
// shape the introspector reconstructs, so the two can be compared directly.
type Table struct {
	Name        string        `yaml:"name" msgpack:"name"`
	Columns     []*Column     `yaml:"columns" msgpack:"columns"`
	PrimaryKey  []string      `yaml:"primary_key,omitempty" msgpack:"primary_key,omitempty"`
	ForeignKeys []*ForeignKey `yaml:"foreign_keys,omitempty" msgpack:"foreign_keys,omitempty"`
	Indexes     []*Index      `yaml:"indexes,omitempty" msgpack:"indexes,omitempty"`
	Uniques     []*Unique     `yaml:"uniques,omitempty" msgpack:"uniques,omitempty"`
}

// NewTable returns a new table with the given name.
func NewTable(name string) *Table {
	return &Table{Name: name}
}

// AddColumn appends a column to the table.
func (t *Table) AddColumn(c *Column) *Table {
	t.Columns = append(t.Columns, c)
	return t
}

// SetPrimaryKey sets the primary-key column list.
func (t *Table) SetPrimaryKey(columns ...string) *Table {
	t.PrimaryKey = columns
	return t
}

// AddForeignKey appends a foreign key to the table.
func (t *Table) AddForeignKey(fk *ForeignKey) *Table {
	t.ForeignKeys = append(t.ForeignKeys, fk)
	return t
}

// AddIndex appends an index to the table.
func (t *Table) AddIndex(name string, unique bool, columns []string) *Table {
	t.Indexes = append(t.Indexes, &Index{Name: name, Unique: unique, Columns: columns})
	return t
}

// AddUnique appends a named unique constraint to the table.
func (t *Table) AddUnique(name string, columns []string) *Table {
	t.Uniques = append(t.Uniques, &Unique{Name: name, Columns: columns})
	return t
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// Index returns the index with the given name.
func (t *Table) Index(name string) (*Index, bool) {
	for _, idx := range t.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return nil, false
}

// DatabaseSchema is a read-only snapshot of a database, produced by Inspect
// or decoded from a snapshot file.
type DatabaseSchema struct {
	Name   string   `yaml:"name" msgpack:"name"`
	Tables []*Table `yaml:"tables" msgpack:"tables"`
}

// Table returns the table with the given name.
func (s *DatabaseSchema) Table(name string) (*Table, bool) {
	for _, t := range s.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}
