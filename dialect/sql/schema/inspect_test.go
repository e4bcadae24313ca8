package schema

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syssam/quarry/dialect"
)

func execPlan(t *testing.T, drv dialect.Driver, ops []Operation) {
	t.Helper()
	stmts, err := Plan(drv.Dialect(), ops)
	require.NoError(t, err)
	ctx := context.Background()
	for _, stmt := range stmts {
		require.NoError(t, drv.Exec(ctx, stmt, []any{}, nil))
	}
}

func TestInspect_RoundTrip(t *testing.T) {
	ctx := context.Background()
	drv := openSQLite(t)
	execPlan(t, drv, []Operation{
		&CreateTable{Table: usersTable()},
		&CreateTable{Table: postsTable()},
	})

	s, err := Inspect(ctx, drv, "")
	require.NoError(t, err)
	require.Len(t, s.Tables, 2)

	// Catalog order is alphabetical on SQLite.
	posts, users := s.Tables[0], s.Tables[1]
	require.Equal(t, "posts", posts.Name)
	require.Equal(t, "users", users.Name)

	id, ok := users.Column("id")
	require.True(t, ok)
	require.Equal(t, KindInt, id.Type.Kind)
	require.True(t, id.AutoIncrement)
	require.False(t, id.Nullable)
	require.Equal(t, []string{"id"}, users.PrimaryKey)

	name, ok := users.Column("name")
	require.True(t, ok)
	require.Equal(t, Varchar(255), name.Type)
	require.False(t, name.Nullable)

	age, ok := users.Column("age")
	require.True(t, ok)
	require.Equal(t, KindInt, age.Type.Kind)
	require.True(t, age.Nullable)

	userID, ok := posts.Column("user_id")
	require.True(t, ok)
	require.Equal(t, KindBigInt, userID.Type.Kind)

	require.Len(t, posts.ForeignKeys, 1)
	fk := posts.ForeignKeys[0]
	require.Equal(t, "posts_user_id_fkey", fk.Symbol)
	require.Equal(t, "user_id", fk.Column)
	require.Equal(t, "users", fk.RefTable)
	require.Equal(t, "id", fk.RefColumn)
	require.Equal(t, Cascade, fk.OnDelete)
	require.Equal(t, NoAction, fk.OnUpdate)

	require.Len(t, posts.Indexes, 1)
	require.Equal(t, &Index{Name: "posts_title_idx", Columns: []string{"title"}}, posts.Indexes[0])
}

func TestInspect_Defaults(t *testing.T) {
	ctx := context.Background()
	drv := openSQLite(t)
	execPlan(t, drv, []Operation{&CreateTable{
		Table: NewTable("settings").
			AddColumn(&Column{Name: "id", Type: Int(), AutoIncrement: true}).
			AddColumn(&Column{Name: "theme", Type: Varchar(32), Default: "light"}).
			SetPrimaryKey("id"),
	}})

	s, err := Inspect(ctx, drv, "")
	require.NoError(t, err)
	theme, ok := s.Tables[0].Column("theme")
	require.True(t, ok)
	require.Equal(t, "light", theme.Default)
}

func TestInspect_Exclusions(t *testing.T) {
	ctx := context.Background()
	drv := openSQLite(t)
	execPlan(t, drv, []Operation{
		&CreateTable{Table: usersTable()},
		&CreateTable{Table: postsTable()},
	})
	// The history table never shows up in inspection results.
	m := NewMigrator(drv)
	require.NoError(t, m.ensureHistory(ctx))

	s, err := Inspect(ctx, drv, "")
	require.NoError(t, err)
	require.Len(t, s.Tables, 2)

	s, err = Inspect(ctx, drv, "", ExcludeTables("posts"))
	require.NoError(t, err)
	require.Len(t, s.Tables, 1)
	require.Equal(t, "users", s.Tables[0].Name)
}
