package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateDiff_DroppedObjects(t *testing.T) {
	current := []*Table{usersTable(), postsTable()}
	desired := []*Table{usersTable()}

	res := ValidateDiff(current, desired)
	require.True(t, res.HasErrors())
	require.True(t, res.HasBreakingChanges())
	require.Equal(t, "posts", res.Errors[0].Table)

	// The same drop downgrades to a warning when allowed.
	res = ValidateDiff(current, desired, AllowDropTable())
	require.False(t, res.HasErrors())
	require.True(t, res.HasWarnings())
	require.True(t, res.HasBreakingChanges())
}

func TestValidateDiff_ColumnChanges(t *testing.T) {
	current := []*Table{usersTable()}

	desired := usersTable()
	for i, c := range desired.Columns {
		if c.Name == "age" {
			desired.Columns[i] = &Column{Name: "age", Type: Int()}
		}
		if c.Name == "name" {
			desired.Columns[i] = &Column{Name: "name", Type: Varchar(100)}
		}
	}
	desired.AddColumn(&Column{Name: "bio", Type: Text()})

	res := ValidateDiff(current, []*Table{desired})
	require.Len(t, res.Errors, 1)
	require.Equal(t, "age", res.Errors[0].Column)
	require.True(t, res.Errors[0].Breaking)

	// Type change, size reduction and NOT NULL addition without default warn.
	var messages []string
	for _, w := range res.Warnings {
		messages = append(messages, w.Message)
	}
	require.Len(t, res.Warnings, 3)
	require.Contains(t, messages[0], "type changing from varchar(255) to varchar(100)")
	require.Contains(t, messages[1], "size reducing from 255 to 100")
	require.Contains(t, messages[2], "new NOT NULL column without default")

	res = ValidateDiff(current, []*Table{desired}, AllowNullToNotNull())
	require.False(t, res.HasErrors())
}

func TestValidateDiff_Indexes(t *testing.T) {
	desired := postsTable()
	desired.Indexes = nil
	res := ValidateDiff([]*Table{postsTable()}, []*Table{desired})
	require.Len(t, res.Errors, 1)
	require.Contains(t, res.Errors[0].Message, `index "posts_title_idx" will be dropped`)

	res = ValidateDiff([]*Table{postsTable()}, []*Table{desired}, AllowDropIndex())
	require.False(t, res.HasErrors())
}

func TestValidateTable(t *testing.T) {
	res := ValidateTable(usersTable())
	require.False(t, res.HasErrors())
	require.False(t, res.HasWarnings())

	bad := NewTable("bad").
		AddColumn(&Column{Name: "a", Type: Int()}).
		AddColumn(&Column{Name: "a", Type: Text()}).
		SetPrimaryKey("missing").
		AddIndex("bad_idx", false, []string{"nope"}).
		AddForeignKey(&ForeignKey{Symbol: "bad_fk", Column: "ghost", RefTable: "users", RefColumn: "id"})

	res = ValidateTable(bad)
	require.Len(t, res.Errors, 4)

	noPK := NewTable("logs").AddColumn(&Column{Name: "line", Type: Text()})
	res = ValidateTable(noPK)
	require.Len(t, res.Warnings, 1)
	require.Contains(t, res.Warnings[0].Message, "no primary key")
}

func TestValidateSchema(t *testing.T) {
	res := ValidateSchema([]*Table{usersTable(), postsTable()})
	require.False(t, res.HasErrors())

	// Cross-table reference to a missing table.
	res = ValidateSchema([]*Table{postsTable()})
	require.Len(t, res.Errors, 1)
	require.Contains(t, res.Errors[0].Message, `non-existent table "users"`)

	res = ValidateSchema([]*Table{usersTable(), usersTable()})
	require.True(t, res.HasErrors())
	require.Contains(t, res.Errors[0].Message, "duplicate table name")
}

func TestValidationResult_String(t *testing.T) {
	res := &ValidationResult{}
	require.Equal(t, "No issues found", res.String())

	res = ValidateDiff([]*Table{usersTable()}, nil)
	out := res.String()
	require.Contains(t, out, "Errors:")
	require.Contains(t, out, "[BREAKING]")
}
