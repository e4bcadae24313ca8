package sql

// Mapping declares how an entity's record values map to columns. It replaces
// runtime reflection: the caller (usually generated code) declares the field
// list once per entity and the Inserter extracts values through it.
type Mapping struct {
	Entity Entity
	Fields []FieldMapping
}

// FieldMapping binds one declared field to its value extractor.
type FieldMapping struct {
	// Name is the declared field name, resolved to a column by ResolveName.
	Name string
	// PK marks a primary-key field. A nil primary-key value is skipped on
	// insert so the database can generate the key.
	PK bool
	// Get extracts the field value from a record.
	Get func(rec any) any
}

// Inserter builds an INSERT statement.
type Inserter struct {
	entity  Entity
	columns []string
	values  []any
}

// Insert returns an inserter for the given entity.
func Insert(e Entity) *Inserter {
	return &Inserter{entity: e}
}

// Set appends one column value. Columns render in Set order.
func (i *Inserter) Set(field string, v any) *Inserter {
	i.columns = append(i.columns, ResolveName(field))
	i.values = append(i.values, v)
	return i
}

// Record appends all mapped values of a record, skipping primary-key fields
// whose value is nil.
func (i *Inserter) Record(m Mapping, rec any) *Inserter {
	for _, f := range m.Fields {
		v := f.Get(rec)
		if f.PK && v == nil {
			continue
		}
		i.Set(f.Name, v)
	}
	return i
}

// Render compiles the statement for the given dialect. An empty value set is
// a *BuildError.
func (i *Inserter) Render(dialect string) (string, []any, error) {
	if len(i.columns) == 0 {
		return "", nil, &BuildError{Stmt: "insert", Msg: "empty value set"}
	}
	b := NewBuilder(dialect)
	b.WriteString("INSERT INTO ").Ident(i.entity.TableName()).WriteString(" (")
	for j, c := range i.columns {
		if j > 0 {
			b.WriteString(", ")
		}
		b.Ident(c)
	}
	b.WriteString(") VALUES (")
	b.WriteString(b.Args(i.values...))
	b.WriteString(")")
	return b.query()
}

// Updater builds an UPDATE statement.
type Updater struct {
	entity  Entity
	columns []string
	values  []any
	where   Predicate
}

// Update returns an updater for the given entity.
func Update(e Entity) *Updater {
	return &Updater{entity: e}
}

// Set appends one SET assignment.
func (u *Updater) Set(field string, v any) *Updater {
	u.columns = append(u.columns, ResolveName(field))
	u.values = append(u.values, v)
	return u
}

// Where sets the WHERE predicate. Repeated calls combine with And. An update
// without a WHERE updates every row; that is the caller's responsibility.
func (u *Updater) Where(p Predicate) *Updater {
	if u.where != nil {
		p = And(u.where, p)
	}
	u.where = p
	return u
}

// Render compiles the statement for the given dialect. An empty SET list is
// a *BuildError.
func (u *Updater) Render(dialect string) (string, []any, error) {
	if len(u.columns) == 0 {
		return "", nil, &BuildError{Stmt: "update", Msg: "empty set list"}
	}
	b := NewBuilder(dialect)
	b.WriteString("UPDATE ").Ident(u.entity.TableName()).WriteString(" SET ")
	for j, c := range u.columns {
		if j > 0 {
			b.WriteString(", ")
		}
		b.Ident(c).WriteString(" = " + b.Arg(u.values[j]))
	}
	if u.where != nil {
		b.WriteString(" WHERE ")
		b.predicate(u.where)
	}
	return b.query()
}

// Deleter builds a DELETE statement.
type Deleter struct {
	entity Entity
	where  Predicate
}

// Delete returns a deleter for the given entity.
func Delete(e Entity) *Deleter {
	return &Deleter{entity: e}
}

// Where sets the WHERE predicate. Repeated calls combine with And. A delete
// without a WHERE deletes every row; that is the caller's responsibility.
func (d *Deleter) Where(p Predicate) *Deleter {
	if d.where != nil {
		p = And(d.where, p)
	}
	d.where = p
	return d
}

// Render compiles the statement for the given dialect.
func (d *Deleter) Render(dialect string) (string, []any, error) {
	b := NewBuilder(dialect)
	b.WriteString("DELETE FROM ").Ident(d.entity.TableName())
	if d.where != nil {
		b.WriteString(" WHERE ")
		b.predicate(d.where)
	}
	return b.query()
}
