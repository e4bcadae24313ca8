package dialect

import (
	"context"
)

// Dialect names of the database engines supported by this module.
const (
	// MySQL is the MySQL/MariaDB dialect.
	MySQL = "mysql"
	// Postgres is the PostgreSQL dialect.
	Postgres = "postgres"
	// SQLite is the SQLite dialect.
	SQLite = "sqlite"
)

// ExecQuerier wraps the two standard database operations.
type ExecQuerier interface {
	// Exec executes a query that does not return records. For example, in SQL, INSERT or UPDATE.
	// It scans the result into the pointer v. For SQL drivers, it is dialect/sql.Result.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a query that returns rows, typically a SELECT in SQL.
	// It scans the result into the pointer v. For SQL drivers, it is *dialect/sql.Rows.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface that wraps all database operations.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	// The provided context is used until the transaction is committed or rolled back.
	Tx(context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx wraps transactional operations.
type Tx interface {
	ExecQuerier
	Commit() error
	Rollback() error
}
