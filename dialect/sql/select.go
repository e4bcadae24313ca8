package sql

import (
	"fmt"
	"strconv"
)

// SelectField is a single entry of a select list: a qualified column, an
// aggregate, or a raw expression. Like Operand and Predicate, the set is
// closed and every renderer switches over all kinds.
type SelectField interface {
	selectField()
}

// FieldColumn selects a qualified column, optionally aliased.
type FieldColumn struct {
	Col ColumnRef
	As  string
}

func (FieldColumn) selectField() {}

// FieldAgg applies an aggregate function to an inner field. A nil inner field
// aggregates over `*`, as in COUNT(*).
type FieldAgg struct {
	Fn    string
	Inner SelectField
	As    string
}

func (FieldAgg) selectField() {}

// FieldRaw selects a caller-supplied raw expression, optionally aliased. The
// expression is emitted verbatim.
type FieldRaw struct {
	Expr string
	As   string
}

func (FieldRaw) selectField() {}

// Column returns a column select field.
func Column(col ColumnRef) FieldColumn { return FieldColumn{Col: col} }

// WithAlias returns a copy of the field with the given alias.
func (f FieldColumn) WithAlias(as string) FieldColumn { f.As = as; return f }

// WithAlias returns a copy of the aggregate with the given alias.
func (f FieldAgg) WithAlias(as string) FieldAgg { f.As = as; return f }

// WithAlias returns a copy of the raw field with the given alias.
func (f FieldRaw) WithAlias(as string) FieldRaw { f.As = as; return f }

// Count returns a COUNT aggregate. Count(nil) renders COUNT(*).
func Count(inner SelectField) FieldAgg { return FieldAgg{Fn: "COUNT", Inner: inner} }

// Sum returns a SUM aggregate.
func Sum(inner SelectField) FieldAgg { return FieldAgg{Fn: "SUM", Inner: inner} }

// Avg returns an AVG aggregate.
func Avg(inner SelectField) FieldAgg { return FieldAgg{Fn: "AVG", Inner: inner} }

// Min returns a MIN aggregate.
func Min(inner SelectField) FieldAgg { return FieldAgg{Fn: "MIN", Inner: inner} }

// Max returns a MAX aggregate.
func Max(inner SelectField) FieldAgg { return FieldAgg{Fn: "MAX", Inner: inner} }

// Raw returns a raw-expression select field.
func Raw(expr string) FieldRaw { return FieldRaw{Expr: expr} }

type join struct {
	kind   string // "INNER", "LEFT", ...
	target Entity
	on     string // verbatim join condition
	// sub is set for derived-table joins. The subquery renders in place and
	// onFn receives its generated alias.
	sub  *Selector
	onFn func(alias string) string
}

type orderTerm struct {
	col  ColumnRef
	desc bool
}

// Selector builds a SELECT statement. Construction never touches a
// connection; the statement is plain data until Render is called.
type Selector struct {
	entity   Entity
	distinct bool
	fields   []SelectField
	joins    []join
	where    Predicate
	groupBy  []SelectField
	having   Predicate
	orderBy  []orderTerm
	limit    *int
	offset   *int
}

// Select returns a selector for the given entity.
func Select(e Entity) *Selector {
	return &Selector{entity: e}
}

// Distinct marks the selection as DISTINCT.
func (s *Selector) Distinct() *Selector {
	s.distinct = true
	return s
}

// Fields appends to the select list. An empty list renders `*`.
func (s *Selector) Fields(fields ...SelectField) *Selector {
	s.fields = append(s.fields, fields...)
	return s
}

// Join appends a join clause. The kind is emitted verbatim before the JOIN
// keyword and the condition is emitted verbatim after ON.
func (s *Selector) Join(kind string, target Entity, on string) *Selector {
	s.joins = append(s.joins, join{kind: kind, target: target, on: on})
	return s
}

// JoinSelect appends a join against a derived table. The subquery renders in
// parentheses bound to an alias generated by the render context, and its
// parameters keep their position in the outer statement's parameter list. The
// on callback receives the alias and returns the verbatim join condition.
func (s *Selector) JoinSelect(kind string, sub *Selector, on func(alias string) string) *Selector {
	s.joins = append(s.joins, join{kind: kind, sub: sub, onFn: on})
	return s
}

// Where sets the WHERE predicate. Repeated calls combine with And.
func (s *Selector) Where(p Predicate) *Selector {
	if s.where != nil {
		p = And(s.where, p)
	}
	s.where = p
	return s
}

// GroupBy appends GROUP BY fields. Aggregates are rejected at render time.
func (s *Selector) GroupBy(fields ...SelectField) *Selector {
	s.groupBy = append(s.groupBy, fields...)
	return s
}

// Having sets the HAVING predicate. Repeated calls combine with And.
func (s *Selector) Having(p Predicate) *Selector {
	if s.having != nil {
		p = And(s.having, p)
	}
	s.having = p
	return s
}

// OrderBy appends an ascending order term.
func (s *Selector) OrderBy(col ColumnRef) *Selector {
	s.orderBy = append(s.orderBy, orderTerm{col: col})
	return s
}

// OrderByDesc appends a descending order term.
func (s *Selector) OrderByDesc(col ColumnRef) *Selector {
	s.orderBy = append(s.orderBy, orderTerm{col: col, desc: true})
	return s
}

// Limit sets the LIMIT clause.
func (s *Selector) Limit(n int) *Selector {
	s.limit = &n
	return s
}

// Offset sets the OFFSET clause.
func (s *Selector) Offset(n int) *Selector {
	s.offset = &n
	return s
}

// Render compiles the statement for the given dialect. Identical input always
// yields byte-identical SQL and an identical parameter list.
func (s *Selector) Render(dialect string) (string, []any, error) {
	b := NewBuilder(dialect)
	s.render(b)
	return b.query()
}

// render writes the statement into an existing render context, so a selector
// can embed as a derived table of an enclosing statement.
func (s *Selector) render(b *Builder) {
	b.WriteString("SELECT ")
	if s.distinct {
		b.WriteString("DISTINCT ")
	}
	if len(s.fields) == 0 {
		b.WriteString("*")
	} else {
		for i, f := range s.fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.selectField(f)
		}
	}
	b.WriteString(" FROM ").Ident(s.entity.TableName())
	for _, j := range s.joins {
		b.WriteString(" " + j.kind + " JOIN ")
		if j.sub != nil {
			alias := b.Alias()
			b.WriteString("(")
			j.sub.render(b)
			b.WriteString(") AS ").Ident(alias)
			b.WriteString(" ON " + j.onFn(alias))
			continue
		}
		b.Ident(j.target.TableName())
		b.WriteString(" ON " + j.on)
	}
	if s.where != nil {
		b.WriteString(" WHERE ")
		b.predicate(s.where)
	}
	if len(s.groupBy) > 0 {
		b.WriteString(" GROUP BY ")
		for i, f := range s.groupBy {
			if i > 0 {
				b.WriteString(", ")
			}
			if _, ok := f.(FieldAgg); ok {
				b.AddError(&RenderError{Clause: "GROUP BY", Msg: "aggregate fields are not groupable"})
				continue
			}
			b.selectField(f)
		}
	}
	if s.having != nil {
		b.WriteString(" HAVING ")
		b.predicate(s.having)
	}
	if len(s.orderBy) > 0 {
		b.WriteString(" ORDER BY ")
		for i, o := range s.orderBy {
			if i > 0 {
				b.WriteString(", ")
			}
			b.operand(o.col)
			if o.desc {
				b.WriteString(" DESC")
			} else {
				b.WriteString(" ASC")
			}
		}
	}
	if s.limit != nil {
		b.WriteString(" LIMIT " + strconv.Itoa(*s.limit))
	}
	if s.offset != nil {
		b.WriteString(" OFFSET " + strconv.Itoa(*s.offset))
	}
}

// selectField renders a single select-list entry.
func (b *Builder) selectField(f SelectField) {
	switch f := f.(type) {
	case FieldColumn:
		b.operand(f.Col)
		b.fieldAlias(f.As)
	case FieldAgg:
		b.WriteString(f.Fn + "(")
		if f.Inner == nil {
			b.WriteString("*")
		} else {
			b.selectField(f.Inner)
		}
		b.WriteString(")")
		b.fieldAlias(f.As)
	case FieldRaw:
		b.WriteString(f.Expr)
		b.fieldAlias(f.As)
	default:
		b.AddError(&RenderError{Clause: "select list", Msg: fmt.Sprintf("unsupported field %T", f)})
	}
}

func (b *Builder) fieldAlias(as string) {
	if as != "" {
		b.WriteString(" AS ").Ident(as)
	}
}
