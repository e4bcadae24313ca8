package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func snapshotSchema() *DatabaseSchema {
	return &DatabaseSchema{
		Name:   "app",
		Tables: []*Table{usersTable(), postsTable()},
	}
}

func TestSnapshot_YAML(t *testing.T) {
	s := snapshotSchema()
	data, err := s.YAML()
	require.NoError(t, err)
	require.Contains(t, string(data), "posts_user_id_fkey")

	parsed, err := ParseYAML(data)
	require.NoError(t, err)
	require.Equal(t, s.Name, parsed.Name)
	require.Len(t, parsed.Tables, 2)

	users, posts := parsed.Tables[0], parsed.Tables[1]
	require.Equal(t, []string{"id"}, users.PrimaryKey)
	email, ok := users.Column("email")
	require.True(t, ok)
	require.True(t, email.Unique)
	require.Equal(t, Varchar(255), email.Type)
	require.Equal(t, postsTable().ForeignKeys, posts.ForeignKeys)
	require.Equal(t, postsTable().Indexes, posts.Indexes)
}

func TestSnapshot_Msgpack(t *testing.T) {
	s := snapshotSchema()
	data, err := s.Msgpack()
	require.NoError(t, err)

	parsed, err := ParseMsgpack(data)
	require.NoError(t, err)
	require.Equal(t, s.Name, parsed.Name)
	require.Len(t, parsed.Tables, 2)
	require.Equal(t, usersTable().Columns, parsed.Tables[0].Columns)
	require.Equal(t, postsTable().ForeignKeys, parsed.Tables[1].ForeignKeys)
}

func TestSnapshot_ParseErrors(t *testing.T) {
	_, err := ParseYAML([]byte("\t not yaml"))
	require.Error(t, err)
	_, err = ParseMsgpack([]byte{0xc1})
	require.Error(t, err)
}
