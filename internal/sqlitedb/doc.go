// Package sqlitedb opens the SQLite database shared by the chatterbox
// commands. The pure Go driver is used by default; building with the
// cgo_sqlite tag switches to the cgo driver.
package sqlitedb
