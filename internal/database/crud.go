package database

import (
	"context"
	"fmt"
)

// Helper function to perform transactions and execute SQL statements
func (db *DB) executeTransaction(ctx context.Context, query string, args ...any) (int64, error) {
	if !db.Available() {
		return 0, ErrUnavailable
	}

	tx, err := db.Conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to execute query: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return affected, nil
}

// UpsertDocument inserts doc or replaces the title and path stored for its virtual path.
func (db *DB) UpsertDocument(ctx context.Context, doc Document) error {
	if doc.VirtualPath == "" {
		return fmt.Errorf("document without virtual path")
	}
	upsertSQL := `
		INSERT INTO files (virtual_path, title, path)
		VALUES (?, ?, ?)
		ON CONFLICT(virtual_path) DO UPDATE SET title = excluded.title, path = excluded.path;
	`
	_, err := db.executeTransaction(ctx, upsertSQL, doc.VirtualPath, doc.Title, doc.Path)
	return err
}

// DeleteDocument removes the document with the given virtual path.
func (db *DB) DeleteDocument(ctx context.Context, virtualPath string) error {
	affected, err := db.executeTransaction(ctx, `DELETE FROM files WHERE virtual_path = ?`, virtualPath)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
