package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ListDocuments returns every document known to the indexer, ordered by
// virtual path. An unavailable DB yields no documents.
func (db *DB) ListDocuments(ctx context.Context) ([]Document, error) {
	if !db.Available() {
		return nil, nil
	}
	query := `SELECT virtual_path, title, path FROM files ORDER BY virtual_path`
	return db.getDocumentsFromQuery(ctx, query)
}

// Lookup retrieves a document by virtual path, or returns ErrNotFound.
func (db *DB) Lookup(ctx context.Context, virtualPath string) (Document, error) {
	query := `SELECT virtual_path, title, path FROM files WHERE virtual_path = ?`
	return db.getDocument(ctx, query, virtualPath)
}

// LookupByPath retrieves the document stored at localPath, or returns ErrNotFound.
func (db *DB) LookupByPath(ctx context.Context, localPath string) (Document, error) {
	query := `SELECT virtual_path, title, path FROM files WHERE path = ? ORDER BY virtual_path LIMIT 1`
	return db.getDocument(ctx, query, localPath)
}

func (db *DB) getDocument(ctx context.Context, query string, args ...any) (Document, error) {
	if !db.Available() {
		return Document{}, ErrNotFound
	}

	var doc Document
	err := db.Conn.QueryRowContext(ctx, query, args...).Scan(&doc.VirtualPath, &doc.Title, &doc.Path)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	} else if err != nil {
		return Document{}, fmt.Errorf("failed to retrieve document: %w", err)
	}
	return doc, nil
}

// Helper function to execute a query and return the documents it selects
func (db *DB) getDocumentsFromQuery(ctx context.Context, query string, args ...any) ([]Document, error) {
	rows, err := db.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var results []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.VirtualPath, &doc.Title, &doc.Path); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error encountered while iterating over rows: %w", err)
	}
	return results, nil
}
