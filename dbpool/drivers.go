package dbpool

import (
	"database/sql"

	_ "github.com/go-sql-driver/mysql" // MySQL/MariaDB driver, registered for "mysql" DSNs
	_ "modernc.org/sqlite"              // pure-Go SQLite driver, registered for "sqlite" DSNs
)

// OpenSQLite opens a SQLite-backed pool at path (e.g. "./oms.db" or
// ":memory:"), matching the teacher's sqlite_quickstart example's driver
// choice (modernc.org/sqlite — no cgo).
func OpenSQLite(path string) (*sql.DB, error) {
	return sql.Open("sqlite", path)
}

// OpenMySQL opens a MySQL/MariaDB-backed pool from a standard go-sql-driver
// DSN ("user:pass@tcp(host:3306)/dbname").
func OpenMySQL(dsn string) (*sql.DB, error) {
	return sql.Open("mysql", dsn)
}
