package sql

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syssam/quarry/dialect"
)

var user = Entity{Name: "User"}

func renderPredicate(t *testing.T, d string, p Predicate) (string, []any) {
	t.Helper()
	b := NewBuilder(d)
	b.predicate(p)
	query, args, err := b.query()
	require.NoError(t, err)
	return query, args
}

func TestPredicate_Compare(t *testing.T) {
	tests := []struct {
		name  string
		p     Predicate
		mysql string
		pg    string
		args  []any
	}{
		{
			name:  "eq",
			p:     EQ(C(user, "name"), "a8m"),
			mysql: "`user`.`name` = ?",
			pg:    `"user"."name" = $1`,
			args:  []any{"a8m"},
		},
		{
			name:  "neq",
			p:     NEQ(C(user, "name"), "a8m"),
			mysql: "`user`.`name` <> ?",
			pg:    `"user"."name" <> $1`,
			args:  []any{"a8m"},
		},
		{
			name:  "gte",
			p:     GTE(C(user, "age"), 18),
			mysql: "`user`.`age` >= ?",
			pg:    `"user"."age" >= $1`,
			args:  []any{18},
		},
		{
			name:  "lt literal",
			p:     LT(C(user, "age"), Lit(30)),
			mysql: "`user`.`age` < 30",
			pg:    `"user"."age" < 30`,
		},
		{
			name:  "columns eq",
			p:     ColumnsEQ(C(user, "createdAt"), C(user, "updatedAt")),
			mysql: "`user`.`created_at` = `user`.`updated_at`",
			pg:    `"user"."created_at" = "user"."updated_at"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := renderPredicate(t, dialect.MySQL, tt.p)
			require.Equal(t, tt.mysql, query)
			require.Equal(t, tt.args, args)
			query, args = renderPredicate(t, dialect.Postgres, tt.p)
			require.Equal(t, tt.pg, query)
			require.Equal(t, tt.args, args)
		})
	}
}

func TestPredicate_Boolean(t *testing.T) {
	p := And(EQ(C(user, "name"), "a8m"), GT(C(user, "age"), 18))
	query, args := renderPredicate(t, dialect.MySQL, p)
	require.Equal(t, "(`user`.`name` = ?) AND (`user`.`age` > ?)", query)
	require.Equal(t, []any{"a8m", 18}, args)

	p = Or(IsNull(C(user, "deletedAt")), NotNull(C(user, "name")))
	query, args = renderPredicate(t, dialect.Postgres, p)
	require.Equal(t, `("user"."deleted_at" IS NULL) OR ("user"."name" IS NOT NULL)`, query)
	require.Empty(t, args)

	p = Not(EQ(C(user, "active"), true))
	query, args = renderPredicate(t, dialect.MySQL, p)
	require.Equal(t, "NOT (`user`.`active` = ?)", query)
	require.Equal(t, []any{true}, args)
}

func TestPredicate_LikeInBetween(t *testing.T) {
	query, args := renderPredicate(t, dialect.MySQL, Like(C(user, "name"), "a%"))
	require.Equal(t, "`user`.`name` LIKE ?", query)
	require.Equal(t, []any{"a%"}, args)

	query, args = renderPredicate(t, dialect.Postgres, NotLike(C(user, "name"), "a%"))
	require.Equal(t, `"user"."name" NOT LIKE $1`, query)
	require.Equal(t, []any{"a%"}, args)

	query, args = renderPredicate(t, dialect.Postgres, In(C(user, "id"), 1, 2, 3))
	require.Equal(t, `"user"."id" IN ($1, $2, $3)`, query)
	require.Equal(t, []any{1, 2, 3}, args)

	query, args = renderPredicate(t, dialect.MySQL, NotIn(C(user, "id"), 1, 2))
	require.Equal(t, "`user`.`id` NOT IN (?, ?)", query)
	require.Equal(t, []any{1, 2}, args)

	// An empty list renders IN (), which evaluates to false on most engines.
	query, args = renderPredicate(t, dialect.MySQL, In(C(user, "id")))
	require.Equal(t, "`user`.`id` IN ()", query)
	require.Empty(t, args)

	query, args = renderPredicate(t, dialect.Postgres, Between(C(user, "age"), 18, 30))
	require.Equal(t, `"user"."age" BETWEEN $1 AND $2`, query)
	require.Equal(t, []any{18, 30}, args)
}

func TestPredicate_ParamOrder(t *testing.T) {
	// Placeholders bind in left-to-right tree order.
	p := Or(
		And(EQ(C(user, "name"), "a8m"), GT(C(user, "age"), 1)),
		Between(C(user, "age"), 2, 3),
	)
	query, args := renderPredicate(t, dialect.Postgres, p)
	require.Equal(t, `(("user"."name" = $1) AND ("user"."age" > $2)) OR ("user"."age" BETWEEN $3 AND $4)`, query)
	require.Equal(t, []any{"a8m", 1, 2, 3}, args)
}

func TestPredicate_Determinism(t *testing.T) {
	p := And(EQ(C(user, "name"), "a8m"), In(C(user, "id"), 1, 2))
	q1, a1 := renderPredicate(t, dialect.MySQL, p)
	q2, a2 := renderPredicate(t, dialect.MySQL, p)
	require.Equal(t, q1, q2)
	require.Equal(t, a1, a2)
}

func TestFormatLiteral(t *testing.T) {
	tests := []struct {
		v     any
		mysql string
		pg    string
	}{
		{nil, "NULL", "NULL"},
		{true, "TRUE", "TRUE"},
		{false, "FALSE", "FALSE"},
		{"it's", "'it''s'", "'it''s'"},
		// MySQL escapes backslashes inside string literals, Postgres and
		// SQLite take them verbatim.
		{`it\`, `'it\\'`, `'it\'`},
		{`C:\tmp`, `'C:\\tmp'`, `'C:\tmp'`},
		{42, "42", "42"},
		{int64(-7), "-7", "-7"},
		{uint8(255), "255", "255"},
		{3.5, "3.5", "3.5"},
	}
	for _, tt := range tests {
		s, err := NewBuilder(dialect.MySQL).formatLiteral(tt.v)
		require.NoError(t, err)
		require.Equal(t, tt.mysql, s)
		s, err = NewBuilder(dialect.Postgres).formatLiteral(tt.v)
		require.NoError(t, err)
		require.Equal(t, tt.pg, s)
		s, err = NewBuilder(dialect.SQLite).formatLiteral(tt.v)
		require.NoError(t, err)
		require.Equal(t, tt.pg, s)
	}

	_, err := NewBuilder(dialect.MySQL).formatLiteral(struct{}{})
	require.Error(t, err)
	require.True(t, IsRenderError(err))
}

func TestFormatLiteral_TrailingBackslashRendered(t *testing.T) {
	// A trailing backslash must not consume the closing quote on MySQL.
	p := EQ(C(user, "name"), Lit(`it\`))
	query, args := renderPredicate(t, dialect.MySQL, p)
	require.Equal(t, "`user`.`name` = 'it\\\\'", query)
	require.Empty(t, args)

	query, _ = renderPredicate(t, dialect.Postgres, p)
	require.Equal(t, `"user"."name" = 'it\'`, query)
}
