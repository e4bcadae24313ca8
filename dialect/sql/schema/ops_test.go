package schema

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func usersTable() *Table {
	return NewTable("users").
		AddColumn(&Column{Name: "id", Type: BigInt(), AutoIncrement: true}).
		AddColumn(&Column{Name: "name", Type: Varchar(255)}).
		AddColumn(&Column{Name: "email", Type: Varchar(255), Unique: true}).
		AddColumn(&Column{Name: "age", Type: Int(), Nullable: true}).
		SetPrimaryKey("id")
}

func postsTable() *Table {
	return NewTable("posts").
		AddColumn(&Column{Name: "id", Type: BigInt(), AutoIncrement: true}).
		AddColumn(&Column{Name: "user_id", Type: BigInt()}).
		AddColumn(&Column{Name: "title", Type: Varchar(200)}).
		SetPrimaryKey("id").
		AddForeignKey(&ForeignKey{
			Symbol:    "posts_user_id_fkey",
			Column:    "user_id",
			RefTable:  "users",
			RefColumn: "id",
			OnDelete:  Cascade,
		}).
		AddIndex("posts_title_idx", false, []string{"title"})
}

func TestChecksum_Stable(t *testing.T) {
	ops := []Operation{
		&CreateTable{Table: usersTable()},
		&CreateIndex{Table: "users", Index: &Index{Name: "users_age_idx", Columns: []string{"age"}}},
	}
	first := ChecksumOps(ops)
	require.Len(t, first, 64)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, ChecksumOps(ops))
	}
	// Rebuilding the same operations from scratch hashes identically.
	require.Equal(t, first, ChecksumOps([]Operation{
		&CreateTable{Table: usersTable()},
		&CreateIndex{Table: "users", Index: &Index{Name: "users_age_idx", Columns: []string{"age"}}},
	}))
}

func TestChecksum_ChangesWithOps(t *testing.T) {
	base := []Operation{&CreateTable{Table: usersTable()}}
	sum := ChecksumOps(base)

	altered := usersTable()
	altered.Columns[1].Type = Varchar(100)
	require.NotEqual(t, sum, ChecksumOps([]Operation{&CreateTable{Table: altered}}))

	require.NotEqual(t, sum, ChecksumOps(append(base, &DropTable{Name: "users"})))
	require.NotEqual(t, sum, ChecksumOps(nil))
}

func TestChecksum_FingerprintCoversConstraints(t *testing.T) {
	with := postsTable()
	without := postsTable()
	without.ForeignKeys = nil
	require.NotEqual(t,
		ChecksumOps([]Operation{&CreateTable{Table: with}}),
		ChecksumOps([]Operation{&CreateTable{Table: without}}),
	)

	noIdx := postsTable()
	noIdx.Indexes = nil
	require.NotEqual(t,
		ChecksumOps([]Operation{&CreateTable{Table: with}}),
		ChecksumOps([]Operation{&CreateTable{Table: noIdx}}),
	)
}

func TestParseName(t *testing.T) {
	version, ts, desc, err := ParseName("V001__1700000000__create_users")
	require.NoError(t, err)
	require.Equal(t, 1, version)
	require.Equal(t, int64(1700000000), ts)
	require.Equal(t, "create_users", desc)

	// Descriptions may contain further underscores.
	_, _, desc, err = ParseName("V042__1700000001__add_user_email_index")
	require.NoError(t, err)
	require.Equal(t, "add_user_email_index", desc)

	for _, name := range []string{
		"001__1700000000__x",
		"V__1700000000__x",
		"Vxx__1700000000__x",
		"V001__notatime__x",
		"V001__1700000000",
		"V001__1700000000__",
	} {
		_, _, _, err := ParseName(name)
		require.Error(t, err, "name %q", name)
	}
}

func TestMigration_NameRoundTrip(t *testing.T) {
	m, err := NewMigration("V007__1700000000__create_posts", []Operation{&CreateTable{Table: postsTable()}}, nil)
	require.NoError(t, err)
	require.Equal(t, "V007__1700000000__create_posts", m.Name())
	require.Equal(t, m.Checksum(), ChecksumOps(m.Up))
}

func TestLoadDir(t *testing.T) {
	fsys := fstest.MapFS{
		"V002__1700000002__create_posts.up.sql": &fstest.MapFile{
			Data: []byte("CREATE TABLE posts (id integer PRIMARY KEY);\n"),
		},
		"V002__1700000002__create_posts.down.sql": &fstest.MapFile{
			Data: []byte("DROP TABLE posts;\n"),
		},
		"V001__1700000001__create_users.up.sql": &fstest.MapFile{
			Data: []byte("-- users table\nCREATE TABLE users (id integer PRIMARY KEY);\nCREATE INDEX users_id_idx ON users (id);\n"),
		},
		"README.md": &fstest.MapFile{Data: []byte("ignored")},
	}
	migrations, err := LoadDir(fsys)
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	// Sorted by version regardless of directory order.
	require.Equal(t, 1, migrations[0].Version)
	require.Equal(t, 2, migrations[1].Version)

	// Comment lines are stripped, statements split on semicolons.
	require.Len(t, migrations[0].Up, 2)
	require.Empty(t, migrations[0].Down)
	require.Len(t, migrations[1].Up, 1)
	require.Len(t, migrations[1].Down, 1)
}

func TestLoadDir_Errors(t *testing.T) {
	_, err := LoadDir(fstest.MapFS{
		"V001__1__x.down.sql": &fstest.MapFile{Data: []byte("DROP TABLE x;")},
	})
	require.ErrorContains(t, err, "down file but no up file")

	_, err = LoadDir(fstest.MapFS{
		"V001__1__x.up.sql": &fstest.MapFile{Data: []byte("-- nothing here\n")},
	})
	require.ErrorContains(t, err, "no statements")

	_, err = LoadDir(fstest.MapFS{
		"bogus__name.up.sql": &fstest.MapFile{Data: []byte("SELECT 1;")},
	})
	require.ErrorContains(t, err, "malformed migration name")
}
