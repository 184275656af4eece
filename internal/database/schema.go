package database

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/tliron/commonlog"
)

// Database schema version
const SchemaVersion = 1

const envDBPath = "MARKDOWN_LSP_DB_PATH"

var log = commonlog.GetLogger("gnosis.database")

// ResolvePath picks the database file: the configured path, then the
// MARKDOWN_LSP_DB_PATH environment variable, then gnosis_db.sqlite in the
// user's config directory, and finally the working directory.
func ResolvePath(configured string) string {
	if configured != "" {
		return configured
	}
	if env := os.Getenv(envDBPath); env != "" {
		return env
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "gnosis", "gnosis_db", "gnosis_db.sqlite")
	}
	return filepath.Join(".", "gnosis_db.sqlite")
}

// NewDB opens dbPath read-write and creates the tables if they don't exist.
func NewDB(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	conn.SetMaxOpenConns(1)

	db := &DB{Conn: conn, path: dbPath}
	if err := db.setup(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set up database: %w", err)
	}
	return db, nil
}

// NewReadonlyDB opens dbPath in read-only mode with a busy timeout.
func NewReadonlyDB(dbPath string, timeoutMs int) (*DB, error) {
	connStr := fmt.Sprintf("file:%s?mode=ro&_timeout=%d", dbPath, timeoutMs)
	conn, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database in read-only mode: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to SQLite database in read-only mode: %w", err)
	}
	return &DB{Conn: conn, path: dbPath}, nil
}

// OpenReadonly is NewReadonlyDB for the language server: a missing file or a
// failed connection is logged and yields a DB that returns empty results.
func OpenReadonly(dbPath string, timeoutMs int) *DB {
	if _, err := os.Stat(dbPath); errors.Is(err, fs.ErrNotExist) {
		log.Warningf("database file %s does not exist; link completions will be empty", dbPath)
		return &DB{path: dbPath}
	}
	db, err := NewReadonlyDB(dbPath, timeoutMs)
	if err != nil {
		log.Errorf("failed to connect to database: %v; link completions will be empty", err)
		return &DB{path: dbPath}
	}
	return db
}

// setup creates the tables inside one transaction.
func (db *DB) setup() error {
	tx, err := db.Conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := db.createTables(tx); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// createTables creates the files table written by the external indexer.
// - virtual_path: the stable name used inside links
// - title: display name, offered as link alias
// - path: location of the document on disk
func (db *DB) createTables(tx *sql.Tx) error {
	createFilesTable := `
	CREATE TABLE IF NOT EXISTS files (
		virtual_path TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		path TEXT NOT NULL
	);
	`
	createPathIndex := `
	CREATE INDEX IF NOT EXISTS idx_files_path ON files(path);
	`

	if _, err := tx.Exec(createFilesTable); err != nil {
		return fmt.Errorf("failed to create files table: %w", err)
	}
	if _, err := tx.Exec(createPathIndex); err != nil {
		return fmt.Errorf("failed to create path index: %w", err)
	}

	if err := db.setSchemaVersion(tx, SchemaVersion); err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}
	return nil
}

func (db *DB) setSchemaVersion(tx *sql.Tx, version int) error {
	_, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, version))
	return err
}

// Path returns the file the DB was opened from.
func (db *DB) Path() string {
	return db.path
}

// Close closes the database connection
func (db *DB) Close() error {
	if !db.Available() {
		return nil
	}
	return db.Conn.Close()
}
