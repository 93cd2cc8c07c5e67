//go:build !cgo_sqlite

package sqlitedb

import (
	"database/sql"
	"strings"

	_ "modernc.org/sqlite"
)

// Open opens the database with the pure Go driver, which spells its
// connection parameters as _pragma=name(value).
func Open(dataSource string) (*sql.DB, error) {
	return sql.Open("sqlite", nativeDSN(dataSource))
}

func nativeDSN(dataSource string) string {
	path, query, found := strings.Cut(dataSource, "?")
	if !found {
		return dataSource
	}
	var params []string
	for _, p := range strings.Split(query, "&") {
		name, value, _ := strings.Cut(p, "=")
		if pragma, ok := strings.CutPrefix(name, "_"); ok && pragma != "pragma" && pragma != "txlock" && pragma != "time_format" {
			params = append(params, "_pragma="+pragma+"("+value+")")
			continue
		}
		params = append(params, p)
	}
	return path + "?" + strings.Join(params, "&")
}
