package database

import "fmt"

var (
	// ErrNotFound is returned when a requested document doesn't exist
	ErrNotFound = fmt.Errorf("document not found")

	// ErrUnavailable is returned by writes against a DB without a connection
	ErrUnavailable = fmt.Errorf("database is not available")
)
