package migrations

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestMigrateUp_FreshDatabase(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	// Migrate up
	err := MigrateUp(db)
	if err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	// Verify tables were created
	tables := []string{
		"source_document", "change_event", "watch_run",
		"visa_subclass", "requirement", "evidence_item", "flag_template",
		"schema_migrations",
	}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s was not created: %v", table, err)
		}
	}
}

func TestCheckDBMigrationStatus_FreshDatabase(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	// Fresh database should need migration
	err := CheckDBMigrationStatus(db)
	if err == nil {
		t.Error("CheckDBMigrationStatus() expected error for fresh database, got nil")
	}

	// Error should mention needing migration
	if err.Error() != "database has no schema version (needs migration)" {
		t.Errorf("CheckDBMigrationStatus() error = %q, want error about needing migration", err.Error())
	}
}

func TestCheckDBMigrationStatus_AfterMigration(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	// Migrate up
	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	// Status should be OK now
	err := CheckDBMigrationStatus(db)
	if err != nil {
		t.Errorf("CheckDBMigrationStatus() after migration returned error: %v", err)
	}
}

func TestMigrateUp_Idempotent(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	// Run migration twice
	if err := MigrateUp(db); err != nil {
		t.Fatalf("First MigrateUp() failed: %v", err)
	}

	if err := MigrateUp(db); err != nil {
		t.Errorf("Second MigrateUp() failed: %v (should be idempotent)", err)
	}

	// Status should still be OK
	if err := CheckDBMigrationStatus(db); err != nil {
		t.Errorf("CheckDBMigrationStatus() after double migration returned error: %v", err)
	}
}

func TestForeignKeyConstraints(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	// A change event pointing at a non-existent document must be rejected.
	_, err := db.Exec(`
		INSERT INTO change_event
			(change_event_id, source_doc_id_new, change_type, impact_score,
			 requires_review, detected_at)
		VALUES ('ev-1', 'no-such-doc', 'text_change', 50, 0, datetime('now'))
	`)

	if err == nil {
		t.Error("Expected foreign key constraint violation, but insert succeeded")
	}
}

func TestSchema_SourceDocumentDefaults(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	_, err := db.Exec(`
		INSERT INTO source_document
			(source_doc_id, source_type, canonical_url, content_hash, raw_blob_uri, retrieved_at)
		VALUES ('doc-1', 'FRL_ACT', 'https://legislation.gov.au/x', 'abc', '/snap/x', datetime('now'))
	`)
	if err != nil {
		t.Fatalf("Failed to insert source document: %v", err)
	}

	var status, metadata string
	err = db.QueryRow("SELECT status, metadata_json FROM source_document WHERE source_doc_id = 'doc-1'").Scan(&status, &metadata)
	if err != nil {
		t.Fatalf("Failed to retrieve source document: %v", err)
	}
	if status != "current" {
		t.Errorf("status default = %q, want %q", status, "current")
	}
	if metadata != "{}" {
		t.Errorf("metadata_json default = %q, want %q", metadata, "{}")
	}
}

func TestSchema_VisaSubclassCompositeKey(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	// Same code with distinct streams is two rows.
	if _, err := db.Exec("INSERT INTO visa_subclass (subclass_code, stream, name) VALUES ('482', 'SID', 'TSS')"); err != nil {
		t.Fatalf("Failed to insert first subclass: %v", err)
	}
	if _, err := db.Exec("INSERT INTO visa_subclass (subclass_code, stream, name) VALUES ('482', 'legacy', 'TSS legacy')"); err != nil {
		t.Fatalf("Failed to insert second stream: %v", err)
	}

	// Duplicate code+stream must be rejected.
	if _, err := db.Exec("INSERT INTO visa_subclass (subclass_code, stream, name) VALUES ('482', 'SID', 'dup')"); err == nil {
		t.Error("Expected primary key violation for duplicate code+stream, but insert succeeded")
	}
}

// openTestDB opens an in-memory SQLite database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}

	return db
}
