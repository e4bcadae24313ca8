package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestColumnType_String(t *testing.T) {
	tests := []struct {
		typ  ColumnType
		want string
	}{
		{Varchar(255), "varchar(255)"},
		{Char(2), "char(2)"},
		{Binary(16), "binary(16)"},
		{ColumnType{Kind: KindVarchar}, "varchar"},
		{Decimal(10, 2), "decimal(10,2)"},
		{Enum("status", "open", "done"), "enum(status:open|done)"},
		{BigSerial(), "bigserial"},
		{TimestampTZ(), "timestamptz"},
		{JSONB(), "jsonb"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			require.Equal(t, tt.want, tt.typ.String())
		})
	}
}

func TestColumnType_Equal(t *testing.T) {
	require.True(t, Varchar(255).Equal(Varchar(255)))
	require.False(t, Varchar(255).Equal(Varchar(100)))
	require.False(t, Varchar(255).Equal(Char(255)))
	require.True(t, Enum("s", "a", "b").Equal(Enum("s", "a", "b")))
	require.False(t, Enum("s", "a", "b").Equal(Enum("s", "b", "a")))
}

func TestReferenceOption_ConstName(t *testing.T) {
	require.Equal(t, "NoAction", NoAction.ConstName())
	require.Equal(t, "SetNull", SetNull.ConstName())
	require.Equal(t, "SetDefault", SetDefault.ConstName())
	require.Equal(t, "WEIRD", ReferenceOption("WEIRD").ConstName())
}

func TestTable_Lookups(t *testing.T) {
	users := usersTable()
	require.True(t, users.HasColumn("email"))
	require.False(t, users.HasColumn("missing"))

	posts := postsTable()
	idx, ok := posts.Index("posts_title_idx")
	require.True(t, ok)
	require.Equal(t, []string{"title"}, idx.Columns)
	_, ok = posts.Index("missing")
	require.False(t, ok)

	s := &DatabaseSchema{Tables: []*Table{users, posts}}
	got, ok := s.Table("posts")
	require.True(t, ok)
	require.Same(t, posts, got)
	_, ok = s.Table("missing")
	require.False(t, ok)
}
