package sql

import (
	"errors"
	"strconv"
	"strings"

	"github.com/syssam/quarry/dialect"
)

// Builder is the render context of a single render pass. It accumulates the
// ordered parameter list, applies the dialect's identifier quoting and hands
// out monotonic aliases. A Builder is created fresh per Render call and must
// never be shared between concurrent renders.
type Builder struct {
	dialect string
	sb      strings.Builder
	args    []any
	aliases int
	errs    []error
}

// NewBuilder returns a fresh render context for the given dialect.
func NewBuilder(dialect string) *Builder {
	return &Builder{dialect: dialect}
}

// Dialect returns the dialect the context renders for.
func (b *Builder) Dialect() string { return b.dialect }

// Quote quotes the given identifier with the dialect's quote character.
func (b *Builder) Quote(ident string) string {
	quote := "`"
	if b.dialect == dialect.Postgres {
		quote = `"`
	}
	return quote + ident + quote
}

// Arg appends v to the ordered parameter list and returns the dialect's
// positional placeholder for it.
func (b *Builder) Arg(v any) string {
	b.args = append(b.args, v)
	if b.dialect == dialect.Postgres {
		return "$" + strconv.Itoa(len(b.args))
	}
	return "?"
}

// Args appends all values to the parameter list and returns their
// comma-joined placeholders.
func (b *Builder) Args(vs ...any) string {
	ph := make([]string, len(vs))
	for i := range vs {
		ph[i] = b.Arg(vs[i])
	}
	return strings.Join(ph, ", ")
}

// Alias returns the next generated alias. The counter is monotonic for the
// lifetime of the context.
func (b *Builder) Alias() string {
	b.aliases++
	return "t" + strconv.Itoa(b.aliases)
}

// WriteString appends raw SQL text to the output.
func (b *Builder) WriteString(s string) *Builder {
	b.sb.WriteString(s)
	return b
}

// Ident writes the quoted form of the given identifier.
func (b *Builder) Ident(name string) *Builder {
	return b.WriteString(b.Quote(name))
}

// AddError records an error encountered during rendering. Rendering continues
// so that all problems of a statement surface in one pass.
func (b *Builder) AddError(err error) *Builder {
	if err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// Err returns the errors recorded during the render pass, joined.
func (b *Builder) Err() error {
	return errors.Join(b.errs...)
}

// String returns the SQL text accumulated so far.
func (b *Builder) String() string { return b.sb.String() }

// query finalizes the render pass.
func (b *Builder) query() (string, []any, error) {
	if err := b.Err(); err != nil {
		return "", nil, err
	}
	return b.sb.String(), b.args, nil
}
