package sql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/syssam/quarry/dialect"
)

// Operand is a typed input to a predicate or a field: a column reference, a
// literal or a bound parameter. The set of operands is closed; every renderer
// switches over all of them and rejects anything else.
type Operand interface {
	operand()
}

// ColumnRef references a logical field of an entity. It always renders fully
// qualified as <resolved-table>.<resolved-column>.
type ColumnRef struct {
	Entity Entity
	Field  string
}

func (ColumnRef) operand() {}

// C returns a column reference for the given entity field.
func C(e Entity, field string) ColumnRef {
	return ColumnRef{Entity: e, Field: field}
}

// Literal is a scalar rendered verbatim into the SQL text.
type Literal struct {
	V any
}

func (Literal) operand() {}

// Lit returns a literal operand.
func Lit(v any) Literal { return Literal{V: v} }

// Param is a value bound through the dialect's positional placeholder.
type Param struct {
	V any
}

func (Param) operand() {}

// Value returns a bound-parameter operand.
func Value(v any) Param { return Param{V: v} }

// toOperand wraps plain Go values as bound parameters. Operands pass through.
func toOperand(v any) Operand {
	if o, ok := v.(Operand); ok {
		return o
	}
	return Param{V: v}
}

// Op is a comparison operator.
type Op int

// Comparison operators.
const (
	OpEQ Op = iota
	OpNEQ
	OpLT
	OpLTE
	OpGT
	OpGTE
)

var ops = [...]string{
	OpEQ:  "=",
	OpNEQ: "<>",
	OpLT:  "<",
	OpLTE: "<=",
	OpGT:  ">",
	OpGTE: ">=",
}

// String returns the SQL token of the operator.
func (op Op) String() string {
	if op < 0 || int(op) >= len(ops) {
		return ""
	}
	return ops[op]
}

// Predicate is a boolean condition tree used in WHERE and HAVING clauses.
// The node kinds are a closed set; combinators reference only other
// predicates and every leaf references at least one operand, both enforced
// by construction.
type Predicate interface {
	predicate()
}

type (
	compare struct {
		left  Operand
		op    Op
		right Operand
	}
	conj struct {
		or    bool
		left  Predicate
		right Predicate
	}
	negation struct {
		p Predicate
	}
	pattern struct {
		left Operand
		pat  string
		not  bool
	}
	membership struct {
		left   Operand
		values []any
		not    bool
	}
	nullity struct {
		left Operand
		not  bool
	}
	span struct {
		left  Operand
		lower any
		upper any
	}
)

func (*compare) predicate()    {}
func (*conj) predicate()       {}
func (*negation) predicate()   {}
func (*pattern) predicate()    {}
func (*membership) predicate() {}
func (*nullity) predicate()    {}
func (*span) predicate()       {}

// EQ returns a `=` comparison. Non-operand values are bound as parameters.
func EQ(col ColumnRef, v any) Predicate { return &compare{col, OpEQ, toOperand(v)} }

// NEQ returns a `<>` comparison.
func NEQ(col ColumnRef, v any) Predicate { return &compare{col, OpNEQ, toOperand(v)} }

// LT returns a `<` comparison.
func LT(col ColumnRef, v any) Predicate { return &compare{col, OpLT, toOperand(v)} }

// LTE returns a `<=` comparison.
func LTE(col ColumnRef, v any) Predicate { return &compare{col, OpLTE, toOperand(v)} }

// GT returns a `>` comparison.
func GT(col ColumnRef, v any) Predicate { return &compare{col, OpGT, toOperand(v)} }

// GTE returns a `>=` comparison.
func GTE(col ColumnRef, v any) Predicate { return &compare{col, OpGTE, toOperand(v)} }

// ColumnsEQ returns a comparison between two columns.
func ColumnsEQ(a, b ColumnRef) Predicate { return &compare{a, OpEQ, b} }

// And combines two predicates with AND.
func And(left, right Predicate) Predicate { return &conj{left: left, right: right} }

// Or combines two predicates with OR.
func Or(left, right Predicate) Predicate { return &conj{or: true, left: left, right: right} }

// Not negates a predicate.
func Not(p Predicate) Predicate { return &negation{p: p} }

// Like matches the column against the given pattern.
func Like(col ColumnRef, pat string) Predicate { return &pattern{left: col, pat: pat} }

// NotLike is the negated Like.
func NotLike(col ColumnRef, pat string) Predicate { return &pattern{left: col, pat: pat, not: true} }

// In checks membership of the column in the value list. One placeholder is
// rendered per value; an empty list renders `IN ()`, which most dialects
// treat as always false.
func In(col ColumnRef, values ...any) Predicate { return &membership{left: col, values: values} }

// NotIn is the negated In.
func NotIn(col ColumnRef, values ...any) Predicate {
	return &membership{left: col, values: values, not: true}
}

// IsNull checks the column for NULL.
func IsNull(col ColumnRef) Predicate { return &nullity{left: col} }

// NotNull checks the column for NOT NULL.
func NotNull(col ColumnRef) Predicate { return &nullity{left: col, not: true} }

// Between checks that the column lies between lower and upper. The bounds are
// bound as two parameters in that order; lower <= upper is the caller's
// responsibility.
func Between(col ColumnRef, lower, upper any) Predicate {
	return &span{left: col, lower: lower, upper: upper}
}

// predicate renders a predicate tree. Parameters are appended in
// left-to-right tree order, which fixes the placeholder binding order for
// the caller.
func (b *Builder) predicate(p Predicate) {
	switch p := p.(type) {
	case *compare:
		b.operand(p.left)
		b.WriteString(" " + p.op.String() + " ")
		b.operand(p.right)
	case *conj:
		kw := " AND "
		if p.or {
			kw = " OR "
		}
		b.WriteString("(")
		b.predicate(p.left)
		b.WriteString(")" + kw + "(")
		b.predicate(p.right)
		b.WriteString(")")
	case *negation:
		b.WriteString("NOT (")
		b.predicate(p.p)
		b.WriteString(")")
	case *pattern:
		b.operand(p.left)
		if p.not {
			b.WriteString(" NOT LIKE ")
		} else {
			b.WriteString(" LIKE ")
		}
		b.WriteString(b.Arg(p.pat))
	case *membership:
		b.operand(p.left)
		if p.not {
			b.WriteString(" NOT IN (")
		} else {
			b.WriteString(" IN (")
		}
		b.WriteString(b.Args(p.values...))
		b.WriteString(")")
	case *nullity:
		b.operand(p.left)
		if p.not {
			b.WriteString(" IS NOT NULL")
		} else {
			b.WriteString(" IS NULL")
		}
	case *span:
		b.operand(p.left)
		b.WriteString(" BETWEEN ")
		b.WriteString(b.Arg(p.lower))
		b.WriteString(" AND ")
		b.WriteString(b.Arg(p.upper))
	default:
		b.AddError(&RenderError{Clause: "predicate", Msg: fmt.Sprintf("unsupported predicate %T", p)})
	}
}

// operand renders a single operand.
func (b *Builder) operand(o Operand) {
	switch o := o.(type) {
	case ColumnRef:
		b.WriteString(b.Quote(o.Entity.TableName()) + "." + b.Quote(ResolveName(o.Field)))
	case Literal:
		s, err := b.formatLiteral(o.V)
		if err != nil {
			b.AddError(err)
			return
		}
		b.WriteString(s)
	case Param:
		b.WriteString(b.Arg(o.V))
	default:
		b.AddError(&RenderError{Clause: "operand", Msg: fmt.Sprintf("unsupported operand %T", o)})
	}
}

// formatLiteral renders a scalar literal verbatim. Strings are single-quoted
// with embedded quotes doubled. MySQL treats backslashes as escape characters
// inside string literals, so they are doubled there as well; Postgres and
// SQLite take them verbatim.
func (b *Builder) formatLiteral(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "NULL", nil
	case bool:
		if v {
			return "TRUE", nil
		}
		return "FALSE", nil
	case string:
		s := v
		if b.dialect == dialect.MySQL {
			s = strings.ReplaceAll(s, `\`, `\\`)
		}
		return "'" + strings.ReplaceAll(s, "'", "''") + "'", nil
	case int:
		return strconv.Itoa(v), nil
	case int8:
		return strconv.FormatInt(int64(v), 10), nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	default:
		return "", &RenderError{Clause: "literal", Msg: fmt.Sprintf("unsupported literal type %T", v)}
	}
}
