//go:build cgo_sqlite

package sqlitedb

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens the database at dataSource with the cgo driver.
func Open(dataSource string) (*sql.DB, error) {
	return sql.Open("sqlite3", dataSource)
}
