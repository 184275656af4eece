package database_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gnosis/internal/database"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewDB(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	return db
}

func closeTestDB(t *testing.T, db *database.DB) {
	t.Helper()
	if err := db.Close(); err != nil {
		t.Errorf("failed to close test database: %v", err)
	}
}

func seed(t *testing.T, db *database.DB, docs ...database.Document) {
	t.Helper()
	for _, doc := range docs {
		if err := db.UpsertDocument(context.Background(), doc); err != nil {
			t.Fatalf("UpsertDocument(%q) failed: %v", doc.VirtualPath, err)
		}
	}
}

func TestSchemaVersion(t *testing.T) {
	db := openTestDB(t)
	defer closeTestDB(t, db)

	var version int
	if err := db.Conn.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		t.Fatalf("failed to read schema version: %v", err)
	}
	if version != database.SchemaVersion {
		t.Errorf("expected schema version %d, got %d", database.SchemaVersion, version)
	}
}

func TestListDocuments(t *testing.T) {
	db := openTestDB(t)
	defer closeTestDB(t, db)
	ctx := context.Background()

	docs, err := db.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("ListDocuments failed: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected empty list, got %v", docs)
	}

	seed(t, db,
		database.Document{VirtualPath: "notes/b", Title: "B", Path: "/ws/b.md"},
		database.Document{VirtualPath: "notes/a", Title: "A", Path: "/ws/a.md"},
	)

	docs, err = db.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("ListDocuments failed: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].VirtualPath != "notes/a" || docs[1].VirtualPath != "notes/b" {
		t.Errorf("documents not ordered by virtual path: %v", docs)
	}
}

func TestLookup(t *testing.T) {
	db := openTestDB(t)
	defer closeTestDB(t, db)
	ctx := context.Background()

	seed(t, db, database.Document{VirtualPath: "a/b", Title: "Title", Path: "/ws/b.md"})

	doc, err := db.Lookup(ctx, "a/b")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if doc.Title != "Title" || doc.Path != "/ws/b.md" {
		t.Errorf("unexpected document %+v", doc)
	}

	byPath, err := db.LookupByPath(ctx, "/ws/b.md")
	if err != nil {
		t.Fatalf("LookupByPath failed: %v", err)
	}
	if byPath != doc {
		t.Errorf("expected %+v, got %+v", doc, byPath)
	}

	if _, err := db.Lookup(ctx, "missing"); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := db.LookupByPath(ctx, "/ws/missing.md"); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertDocumentReplaces(t *testing.T) {
	db := openTestDB(t)
	defer closeTestDB(t, db)
	ctx := context.Background()

	seed(t, db, database.Document{VirtualPath: "a", Title: "Old", Path: "/old.md"})
	seed(t, db, database.Document{VirtualPath: "a", Title: "New", Path: "/new.md"})

	doc, err := db.Lookup(ctx, "a")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if doc.Title != "New" || doc.Path != "/new.md" {
		t.Errorf("upsert did not replace: %+v", doc)
	}

	if err := db.UpsertDocument(ctx, database.Document{Title: "x"}); err == nil {
		t.Error("expected error for empty virtual path")
	}
}

func TestDeleteDocument(t *testing.T) {
	db := openTestDB(t)
	defer closeTestDB(t, db)
	ctx := context.Background()

	seed(t, db, database.Document{VirtualPath: "a", Title: "A", Path: "/a.md"})
	if err := db.DeleteDocument(ctx, "a"); err != nil {
		t.Fatalf("DeleteDocument failed: %v", err)
	}
	if err := db.DeleteDocument(ctx, "a"); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenReadonlyMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.sqlite")
	db := database.OpenReadonly(path, 100)
	defer closeTestDB(t, db)

	if db.Available() {
		t.Fatal("expected unavailable database for missing file")
	}
	docs, err := db.ListDocuments(context.Background())
	if err != nil || len(docs) != 0 {
		t.Errorf("expected empty result, got %v, %v", docs, err)
	}
	if _, err := db.Lookup(context.Background(), "a"); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := db.UpsertDocument(context.Background(), database.Document{VirtualPath: "a"}); !errors.Is(err, database.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("read-only open must not create the file")
	}
}

func TestOpenReadonlyExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gnosis.sqlite")
	rw, err := database.NewDB(path)
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	seed(t, rw, database.Document{VirtualPath: "a", Title: "A", Path: "/a.md"})
	closeTestDB(t, rw)

	db := database.OpenReadonly(path, 100)
	defer closeTestDB(t, db)
	if !db.Available() {
		t.Fatal("expected available database")
	}
	docs, err := db.ListDocuments(context.Background())
	if err != nil || len(docs) != 1 {
		t.Fatalf("expected one document, got %v, %v", docs, err)
	}
	if err := db.UpsertDocument(context.Background(), database.Document{VirtualPath: "b"}); err == nil {
		t.Error("expected write to fail on read-only database")
	}
}

func TestResolvePath(t *testing.T) {
	t.Setenv("MARKDOWN_LSP_DB_PATH", "/env/db.sqlite")
	if got := database.ResolvePath("/configured.sqlite"); got != "/configured.sqlite" {
		t.Errorf("expected configured path, got %s", got)
	}
	if got := database.ResolvePath(""); got != "/env/db.sqlite" {
		t.Errorf("expected env path, got %s", got)
	}

	t.Setenv("MARKDOWN_LSP_DB_PATH", "")
	got := database.ResolvePath("")
	if filepath.Base(got) != "gnosis_db.sqlite" {
		t.Errorf("expected default file name, got %s", got)
	}
}
