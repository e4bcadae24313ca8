package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProject(t *testing.T) {
	users, err := NewMigration("V001__1__create_users",
		[]Operation{&CreateTable{Table: usersTable()}},
		[]Operation{&DropTable{Name: "users"}},
	)
	require.NoError(t, err)
	posts, err := NewMigration("V002__2__create_posts",
		[]Operation{&CreateTable{Table: postsTable()}},
		[]Operation{&DropTable{Name: "posts"}},
	)
	require.NoError(t, err)
	touchUp, err := NewMigration("V003__3__touch_up",
		[]Operation{
			&AddColumn{Table: "users", Column: &Column{Name: "bio", Type: Text(), Nullable: true}},
			&RenameColumn{Table: "users", From: "bio", To: "about"},
			&AlterColumn{Table: "users", Column: &Column{Name: "about", Type: Varchar(500), Nullable: true}},
			&DropIndex{Table: "posts", Name: "posts_title_idx"},
			&CreateIndex{Table: "posts", Index: &Index{Name: "posts_title_key", Unique: true, Columns: []string{"title"}}},
			&RawSQL{SQL: "UPDATE users SET about = ''"},
		},
		nil,
	)
	require.NoError(t, err)

	// Input order does not matter; operations apply in version order.
	s, err := Project([]*Migration{touchUp, users, posts})
	require.NoError(t, err)
	require.Len(t, s.Tables, 2)

	u, ok := s.Table("users")
	require.True(t, ok)
	require.Equal(t, []string{"id"}, u.PrimaryKey)
	about, ok := u.Column("about")
	require.True(t, ok)
	require.Equal(t, Varchar(500), about.Type)
	require.True(t, about.Nullable)
	require.False(t, u.HasColumn("bio"))

	p, ok := s.Table("posts")
	require.True(t, ok)
	_, ok = p.Index("posts_title_idx")
	require.False(t, ok)
	idx, ok := p.Index("posts_title_key")
	require.True(t, ok)
	require.True(t, idx.Unique)
	require.Equal(t, []string{"title"}, idx.Columns)
}

func TestProject_SourcesStayUntouched(t *testing.T) {
	table := usersTable()
	mig, err := NewMigration("V001__1__create_users",
		[]Operation{
			&CreateTable{Table: table},
			&DropColumn{Table: "users", Column: "age"},
			&RenameTable{From: "users", To: "accounts"},
		},
		nil,
	)
	require.NoError(t, err)

	s, err := Project([]*Migration{mig})
	require.NoError(t, err)
	_, ok := s.Table("users")
	require.False(t, ok)
	accounts, ok := s.Table("accounts")
	require.True(t, ok)
	require.False(t, accounts.HasColumn("age"))

	// The projection mutates clones, never the operation's own table.
	require.Equal(t, "users", table.Name)
	require.True(t, table.HasColumn("age"))
}

func TestProject_Errors(t *testing.T) {
	for _, tt := range []struct {
		name string
		ops  []Operation
		want string
	}{
		{
			name: "duplicate table",
			ops:  []Operation{&CreateTable{Table: usersTable()}, &CreateTable{Table: usersTable()}},
			want: `table "users" already exists`,
		},
		{
			name: "unknown table",
			ops:  []Operation{&AddColumn{Table: "ghosts", Column: &Column{Name: "id", Type: Int()}}},
			want: `table "ghosts" does not exist`,
		},
		{
			name: "unknown column",
			ops:  []Operation{&CreateTable{Table: usersTable()}, &DropColumn{Table: "users", Column: "ghost"}},
			want: `column "ghost" does not exist`,
		},
		{
			name: "unknown index",
			ops:  []Operation{&CreateTable{Table: usersTable()}, &DropIndex{Table: "users", Name: "ghost_idx"}},
			want: `index "ghost_idx" does not exist`,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			mig, err := NewMigration("V001__1__bad", tt.ops, nil)
			require.NoError(t, err)
			_, err = Project([]*Migration{mig})
			require.ErrorContains(t, err, tt.want)
			require.ErrorContains(t, err, "V001__1__bad")
		})
	}
}
