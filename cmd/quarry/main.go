// Command quarry applies, audits and reverse-engineers database schemas: it
// runs versioned SQL migrations, reports and validates their history,
// introspects live catalogs and generates typed column bindings.
package main

import (
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

func main() {
	Execute()
}
