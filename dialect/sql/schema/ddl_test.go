package schema

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syssam/quarry/dialect"
)

func TestPlan_CreateTablePostgres(t *testing.T) {
	stmts, err := Plan(dialect.Postgres, []Operation{&CreateTable{Table: postsTable()}})
	require.NoError(t, err)
	require.Equal(t, []string{
		`CREATE TABLE "posts" ("id" bigserial NOT NULL, "user_id" bigint NOT NULL, "title" varchar(200) NOT NULL, PRIMARY KEY ("id"))`,
		`ALTER TABLE "posts" ADD CONSTRAINT "posts_user_id_fkey" FOREIGN KEY ("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`,
		`CREATE INDEX "posts_title_idx" ON "posts" ("title")`,
	}, stmts)
}

func TestPlan_CreateTableMySQL(t *testing.T) {
	stmts, err := Plan(dialect.MySQL, []Operation{&CreateTable{Table: postsTable()}})
	require.NoError(t, err)
	require.Equal(t, []string{
		"CREATE TABLE `posts` (`id` bigint NOT NULL AUTO_INCREMENT, `user_id` bigint NOT NULL, `title` varchar(200) NOT NULL, PRIMARY KEY (`id`))",
		"ALTER TABLE `posts` ADD CONSTRAINT `posts_user_id_fkey` FOREIGN KEY (`user_id`) REFERENCES `users` (`id`) ON DELETE CASCADE",
		"CREATE INDEX `posts_title_idx` ON `posts` (`title`)",
	}, stmts)
}

func TestPlan_CreateTableSQLite(t *testing.T) {
	// Foreign keys must be inline on SQLite.
	stmts, err := Plan(dialect.SQLite, []Operation{&CreateTable{Table: postsTable()}})
	require.NoError(t, err)
	require.Equal(t, []string{
		"CREATE TABLE `posts` (`id` integer NOT NULL, `user_id` bigint NOT NULL, `title` varchar(200) NOT NULL, PRIMARY KEY (`id`), CONSTRAINT `posts_user_id_fkey` FOREIGN KEY (`user_id`) REFERENCES `users` (`id`) ON DELETE CASCADE)",
		"CREATE INDEX `posts_title_idx` ON `posts` (`title`)",
	}, stmts)
}

func TestPlan_EnumsPostgres(t *testing.T) {
	table := NewTable("tasks").
		AddColumn(&Column{Name: "id", Type: Serial()}).
		AddColumn(&Column{Name: "status", Type: Enum("task_status", "open", "done"), Default: "open"}).
		SetPrimaryKey("id")
	stmts, err := Plan(dialect.Postgres, []Operation{&CreateTable{Table: table}})
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	// The enum type declaration precedes the table and tolerates re-runs.
	require.Equal(t, `DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'task_status') THEN CREATE TYPE "task_status" AS ENUM ('open', 'done'); END IF; END $$`, stmts[0])
	require.Equal(t, `CREATE TABLE "tasks" ("id" serial NOT NULL, "status" "task_status" NOT NULL DEFAULT 'open', PRIMARY KEY ("id"))`, stmts[1])
}

func TestPlan_EnumsMySQL(t *testing.T) {
	table := NewTable("tasks").
		AddColumn(&Column{Name: "status", Type: Enum("task_status", "open", "done")})
	stmts, err := Plan(dialect.MySQL, []Operation{&CreateTable{Table: table}})
	require.NoError(t, err)
	require.Equal(t, []string{
		"CREATE TABLE `tasks` (`status` enum('open', 'done') NOT NULL)",
	}, stmts)
}

func TestPlan_AlterColumn(t *testing.T) {
	op := &AlterColumn{
		Table:  "users",
		Column: &Column{Name: "name", Type: Varchar(500), Nullable: true},
	}

	// Postgres cannot combine the three changes into one statement.
	stmts, err := Plan(dialect.Postgres, []Operation{op})
	require.NoError(t, err)
	require.Equal(t, []string{
		`ALTER TABLE "users" ALTER COLUMN "name" TYPE varchar(500)`,
		`ALTER TABLE "users" ALTER COLUMN "name" DROP NOT NULL`,
		`ALTER TABLE "users" ALTER COLUMN "name" DROP DEFAULT`,
	}, stmts)

	// MySQL replaces the whole definition at once.
	stmts, err = Plan(dialect.MySQL, []Operation{op})
	require.NoError(t, err)
	require.Equal(t, []string{
		"ALTER TABLE `users` MODIFY COLUMN `name` varchar(500) NULL",
	}, stmts)

	_, err = Plan(dialect.SQLite, []Operation{op})
	require.Error(t, err)
}

func TestPlan_ColumnChanges(t *testing.T) {
	stmts, err := Plan(dialect.Postgres, []Operation{
		&AddColumn{Table: "users", Column: &Column{Name: "bio", Type: Text(), Nullable: true}},
		&RenameColumn{Table: "users", From: "bio", To: "about"},
		&DropColumn{Table: "users", Column: "about"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{
		`ALTER TABLE "users" ADD COLUMN "bio" text NULL`,
		`ALTER TABLE "users" RENAME COLUMN "bio" TO "about"`,
		`ALTER TABLE "users" DROP COLUMN "about"`,
	}, stmts)
}

func TestPlan_DefaultExpressions(t *testing.T) {
	// Function expressions and CURRENT_TIMESTAMP pass through verbatim; any
	// other string default is quoted, even one ending in ")".
	stmts, err := Plan(dialect.Postgres, []Operation{
		&AddColumn{Table: "users", Column: &Column{Name: "created_at", Type: Timestamp(), Default: "now()"}},
		&AddColumn{Table: "users", Column: &Column{Name: "updated_at", Type: Timestamp(), Default: "CURRENT_TIMESTAMP"}},
		&AddColumn{Table: "users", Column: &Column{Name: "mood", Type: Varchar(20), Default: "(shrug)"}},
	})
	require.NoError(t, err)
	require.Equal(t, []string{
		`ALTER TABLE "users" ADD COLUMN "created_at" timestamp NOT NULL DEFAULT now()`,
		`ALTER TABLE "users" ADD COLUMN "updated_at" timestamp NOT NULL DEFAULT CURRENT_TIMESTAMP`,
		`ALTER TABLE "users" ADD COLUMN "mood" varchar(20) NOT NULL DEFAULT '(shrug)'`,
	}, stmts)
}

func TestPlan_TableAndKeyChanges(t *testing.T) {
	stmts, err := Plan(dialect.Postgres, []Operation{
		&RenameTable{From: "users", To: "accounts"},
		&AddPrimaryKey{Table: "accounts", Columns: []string{"id"}},
		&DropPrimaryKey{Table: "accounts"},
		&DropForeignKey{Table: "posts", Symbol: "posts_user_id_fkey"},
		&DropIndex{Table: "posts", Name: "posts_title_idx"},
		&DropTable{Name: "accounts"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{
		`ALTER TABLE "users" RENAME TO "accounts"`,
		`ALTER TABLE "accounts" ADD PRIMARY KEY ("id")`,
		`ALTER TABLE "accounts" DROP CONSTRAINT "accounts_pkey"`,
		`ALTER TABLE "posts" DROP CONSTRAINT "posts_user_id_fkey"`,
		`DROP INDEX "posts_title_idx"`,
		`DROP TABLE "accounts"`,
	}, stmts)

	stmts, err = Plan(dialect.MySQL, []Operation{
		&RenameTable{From: "users", To: "accounts"},
		&DropPrimaryKey{Table: "accounts"},
		&DropForeignKey{Table: "posts", Symbol: "posts_user_id_fkey"},
		&DropIndex{Table: "posts", Name: "posts_title_idx"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{
		"RENAME TABLE `users` TO `accounts`",
		"ALTER TABLE `accounts` DROP PRIMARY KEY",
		"ALTER TABLE `posts` DROP FOREIGN KEY `posts_user_id_fkey`",
		"DROP INDEX `posts_title_idx` ON `posts`",
	}, stmts)
}

func TestPlan_SQLiteUnsupported(t *testing.T) {
	for _, op := range []Operation{
		&AlterColumn{Table: "users", Column: &Column{Name: "name", Type: Text()}},
		&AddPrimaryKey{Table: "users", Columns: []string{"id"}},
		&DropPrimaryKey{Table: "users"},
		&AddForeignKey{Table: "posts", ForeignKey: &ForeignKey{Symbol: "fk", Column: "user_id", RefTable: "users", RefColumn: "id"}},
		&DropForeignKey{Table: "posts", Symbol: "fk"},
	} {
		_, err := Plan(dialect.SQLite, []Operation{op})
		require.Error(t, err)
		require.True(t, IsUnsupportedError(err), "op %T", op)
	}
}

func TestPlan_RawSQL(t *testing.T) {
	stmts, err := Plan(dialect.SQLite, []Operation{&RawSQL{SQL: "INSERT INTO users (name) VALUES ('a8m')"}})
	require.NoError(t, err)
	require.Equal(t, []string{"INSERT INTO users (name) VALUES ('a8m')"}, stmts)
}

func TestPlan_UnknownDialect(t *testing.T) {
	_, err := Plan("oracle", []Operation{&DropTable{Name: "x"}})
	require.ErrorContains(t, err, "unsupported dialect")
}

func TestPlan_Deterministic(t *testing.T) {
	ops := []Operation{&CreateTable{Table: usersTable()}, &CreateTable{Table: postsTable()}}
	first, err := Plan(dialect.Postgres, ops)
	require.NoError(t, err)
	second, err := Plan(dialect.Postgres, ops)
	require.NoError(t, err)
	require.Equal(t, first, second)
}
