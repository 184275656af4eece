package database

import "database/sql"

// DB wraps the SQLite connection holding document metadata.
// A DB without a connection answers every query with an empty result.
type DB struct {
	Conn *sql.DB
	path string
}

// Document maps a virtual path to its title and on-disk location.
type Document struct {
	VirtualPath string
	Title       string
	Path        string
}

// Available reports whether the DB is backed by a connection.
func (db *DB) Available() bool {
	return db != nil && db.Conn != nil
}
