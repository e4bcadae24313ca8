package sql

import (
	"sync"

	"github.com/go-openapi/inflect"
)

// names memoizes declared-name resolution for the process lifetime. The
// mapping never changes for a running process, so entries are written once
// and read forever. The cache is shared by all render contexts and is not
// part of any of them.
var names sync.Map // declared name -> database identifier

// ResolveName returns the database identifier for a declared entity or field
// name: it is lower-cased with an underscore inserted before each uppercase
// letter that is not already preceded by one, so "cityId" resolves to
// "city_id" and "OrderItem" to "order_item".
func ResolveName(name string) string {
	if v, ok := names.Load(name); ok {
		return v.(string)
	}
	s := inflect.Underscore(name)
	names.Store(name, s)
	return s
}

// Entity identifies the owning table of a statement or a column reference.
// The table name is derived from the declared name by ResolveName unless an
// explicit table was set.
type Entity struct {
	// Name is the declared entity name, e.g. "OrderItem".
	Name string

	table string
}

// Table returns an Entity bound to an explicit table name, bypassing name
// resolution. Used when the physical name is already known, e.g. for
// introspected tables or the migration history table.
func Table(name string) Entity {
	return Entity{Name: name, table: name}
}

// WithTable returns a copy of the entity with an explicit table name.
func (e Entity) WithTable(name string) Entity {
	e.table = name
	return e
}

// TableName resolves the entity's table name.
func (e Entity) TableName() string {
	if e.table != "" {
		return e.table
	}
	return ResolveName(e.Name)
}
