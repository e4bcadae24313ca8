package gen

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syssam/quarry/dialect/sql/schema"
)

func tasksTable() *schema.Table {
	return schema.NewTable("tasks").
		AddColumn(&schema.Column{Name: "id", Type: schema.BigInt(), AutoIncrement: true}).
		AddColumn(&schema.Column{Name: "owner_id", Type: schema.UUID()}).
		AddColumn(&schema.Column{Name: "title", Type: schema.Varchar(200)}).
		AddColumn(&schema.Column{Name: "status", Type: schema.Enum("task_status", "open", "in_progress", "done")}).
		AddColumn(&schema.Column{Name: "payload", Type: schema.JSONB(), Nullable: true}).
		AddColumn(&schema.Column{Name: "created_at", Type: schema.Timestamp()}).
		SetPrimaryKey("id")
}

func TestGenerateTable(t *testing.T) {
	src, err := GenerateTable(tasksTable(), "model")
	require.NoError(t, err)
	out := string(src)

	require.Contains(t, out, "Code generated by quarry gen. DO NOT EDIT.")
	require.Contains(t, out, "package model")
	require.Contains(t, out, `var Task = sql.Table("tasks")`)

	// Column bindings use declared field names, initialisms preserved.
	require.Contains(t, out, "var TaskColumns = struct {")
	require.Contains(t, out, `sql.C(Task, "OwnerID")`)
	require.Contains(t, out, `sql.C(Task, "CreatedAt")`)

	// Row struct fields carry the mapped Go types.
	require.Contains(t, out, "type TaskRow struct {")
	require.Contains(t, out, "OwnerID   uuid.UUID")
	require.Contains(t, out, "CreatedAt time.Time")
	require.Contains(t, out, "Payload   *json.RawMessage")

	// Enum values become constants.
	require.Contains(t, out, `TaskStatusOpen       = "open"`)
	require.Contains(t, out, `TaskStatusInProgress = "in_progress"`)

	// The mapping skips a zero auto-assigned key.
	require.Contains(t, out, "var TaskMapping = sql.Mapping{")
	require.Regexp(t, `PK:\s+true`, out)

	// Unused imports are pruned.
	require.NotContains(t, out, "encoding/binary")
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	s := &schema.DatabaseSchema{
		Name: "app",
		Tables: []*schema.Table{
			tasksTable(),
			schema.NewTable("users").
				AddColumn(&schema.Column{Name: "id", Type: schema.Serial()}).
				AddColumn(&schema.Column{Name: "name", Type: schema.Varchar(255)}).
				SetPrimaryKey("id"),
		},
	}
	err := Generate(context.Background(), s, Config{Package: "model", Out: dir})
	require.NoError(t, err)

	for _, name := range []string{"tasks.go", "users.go"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		require.NotEmpty(t, data)
	}

	// Output directories are created on demand.
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, Generate(context.Background(), s, Config{Package: "model", Out: nested}))
	_, err = os.Stat(filepath.Join(nested, "users.go"))
	require.NoError(t, err)
}

func TestGenerate_RequiresPackage(t *testing.T) {
	err := Generate(context.Background(), &schema.DatabaseSchema{}, Config{Out: t.TempDir()})
	require.ErrorContains(t, err, "package name is required")
}

func TestNaming(t *testing.T) {
	tests := []struct {
		table, entity string
	}{
		{"users", "User"},
		{"order_items", "OrderItem"},
		{"api_keys", "APIKey"},
		{"people", "Person"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.entity, entityName(tt.table), "table %s", tt.table)
	}

	require.Equal(t, "UserID", fieldName("user_id"))
	require.Equal(t, "HTTPCode", fieldName("http_code"))
	require.Equal(t, "CreatedAt", fieldName("created_at"))
	require.Equal(t, "InProgress", enumConstName("in_progress"))
	require.Equal(t, "OnHold", enumConstName("on-hold"))
}
