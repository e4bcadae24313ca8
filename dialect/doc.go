// Package dialect provides the database dialect abstraction shared by the
// query builders and the migration engine.
//
// A dialect is identified by a constant name:
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//
// The Driver interface is the boundary the rest of the module consumes: it
// executes statements, runs queries and opens transactions against an open,
// already-authenticated connection. The module never opens, pools or retries
// connections itself beyond the database/sql convenience wrappers in
// dialect/sql.
//
// Opening a connection:
//
//	import (
//	    "github.com/syssam/quarry/dialect"
//	    "github.com/syssam/quarry/dialect/sql"
//	)
//
//	drv, err := sql.Open(dialect.Postgres, "postgres://...")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
package dialect
