package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"kbwatch/internal/database/migrations"
	"kbwatch/internal/model"
	"kbwatch/internal/watch"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteRepository implements the watch.Repository interface using SQLite.
type SQLiteRepository struct {
	db   *sql.DB
	path string
}

// NewSQLiteRepository creates a new SQLite repository connection.
// path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	return &SQLiteRepository{
		db:   db,
		path: path,
	}, nil
}

// NewSQLiteRepositoryFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteRepositoryFromDB(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{
		db:   db,
		path: "",
	}
}

// OpenConnection opens and configures a SQLite database connection with
// appropriate PRAGMAs. Exported for tools and tests that need a properly
// configured connection. path can be a file path or ":memory:".
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Source document operations

// GetLatestDocument returns the most recent document for a canonical URL,
// or nil when the URL has never been captured. Ordering is retrieved_at
// descending with rowid as a tiebreaker so same-timestamp inserts resolve
// deterministically to the newest row.
func (s *SQLiteRepository) GetLatestDocument(canonicalURL string) (*model.SourceDocument, error) {
	row := s.db.QueryRow(`
		SELECT source_doc_id, source_type, title, canonical_url, content_hash,
		       raw_blob_uri, retrieved_at, metadata_json, status, effective_from
		FROM source_document
		WHERE canonical_url = ?
		ORDER BY retrieved_at DESC, rowid DESC
		LIMIT 1`, canonicalURL)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding latest document: %w", err)
	}
	return doc, nil
}

func scanDocument(row *sql.Row) (*model.SourceDocument, error) {
	var (
		doc           model.SourceDocument
		metadataJSON  string
		effectiveFrom sql.NullTime
	)
	err := row.Scan(&doc.ID, &doc.SourceType, &doc.Title, &doc.CanonicalURL,
		&doc.ContentHash, &doc.RawBlobURI, &doc.RetrievedAt, &metadataJSON,
		&doc.Status, &effectiveFrom)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
		return nil, fmt.Errorf("decoding document metadata: %w", err)
	}
	if effectiveFrom.Valid {
		t := effectiveFrom.Time
		doc.EffectiveFrom = &t
	}
	return &doc, nil
}

// InsertDocument persists a new immutable document record.
func (s *SQLiteRepository) InsertDocument(doc *model.SourceDocument) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	metadata := doc.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("encoding document metadata: %w", err)
	}

	var effectiveFrom sql.NullTime
	if doc.EffectiveFrom != nil {
		effectiveFrom = sql.NullTime{Time: *doc.EffectiveFrom, Valid: true}
	}

	status := doc.Status
	if status == "" {
		status = model.StatusCurrent
	}

	_, err = s.db.Exec(`
		INSERT INTO source_document
			(source_doc_id, source_type, title, canonical_url, content_hash,
			 raw_blob_uri, retrieved_at, metadata_json, status, effective_from)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.SourceType, doc.Title, doc.CanonicalURL, doc.ContentHash,
		doc.RawBlobURI, doc.RetrievedAt, string(metadataJSON), status, effectiveFrom)
	if err != nil {
		return fmt.Errorf("inserting source document: %w", err)
	}
	return nil
}

// Change event operations

// InsertChangeEvent persists a new immutable change event record.
func (s *SQLiteRepository) InsertChangeEvent(event *model.ChangeEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}

	affected := event.AffectedVisaIDs
	if affected == nil {
		affected = []string{}
	}
	affectedJSON, err := json.Marshal(affected)
	if err != nil {
		return fmt.Errorf("encoding affected visa ids: %w", err)
	}

	var oldID sql.NullString
	if event.SourceDocIDOld != "" {
		oldID = sql.NullString{String: event.SourceDocIDOld, Valid: true}
	}

	_, err = s.db.Exec(`
		INSERT INTO change_event
			(change_event_id, source_doc_id_new, source_doc_id_old, change_type,
			 impact_score, requires_review, summary, affected_visa_ids, detected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.SourceDocIDNew, oldID, event.ChangeType,
		event.ImpactScore, event.RequiresReview, event.Summary,
		string(affectedJSON), event.DetectedAt)
	if err != nil {
		return fmt.Errorf("inserting change event: %w", err)
	}
	return nil
}

// Watch run tracking

// CreateWatchRun records the start of an orchestrator invocation.
func (s *SQLiteRepository) CreateWatchRun(operation string, parameters string) (*model.WatchRun, error) {
	startedAt := time.Now()
	res, err := s.db.Exec(`
		INSERT INTO watch_run (operation, parameters, started_at, status)
		VALUES (?, ?, ?, 'running')`,
		operation, parameters, startedAt)
	if err != nil {
		return nil, fmt.Errorf("creating watch run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading watch run id: %w", err)
	}
	return &model.WatchRun{
		ID:         id,
		Operation:  operation,
		Parameters: parameters,
		StartedAt:  startedAt,
		Status:     "running",
	}, nil
}

// FinishWatchRun stamps the run's finish time and final status.
func (s *SQLiteRepository) FinishWatchRun(id int64, status string) error {
	_, err := s.db.Exec(`
		UPDATE watch_run SET finished_at = ?, status = ? WHERE watch_run_id = ?`,
		time.Now(), status, id)
	if err != nil {
		return fmt.Errorf("finishing watch run: %w", err)
	}
	return nil
}

// ListWatchRuns returns the most recent runs, newest first.
func (s *SQLiteRepository) ListWatchRuns(limit int) ([]*model.WatchRun, error) {
	rows, err := s.db.Query(`
		SELECT watch_run_id, operation, parameters, started_at, finished_at, status
		FROM watch_run
		ORDER BY watch_run_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing watch runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.WatchRun
	for rows.Next() {
		var (
			run        model.WatchRun
			finishedAt sql.NullTime
		)
		if err := rows.Scan(&run.ID, &run.Operation, &run.Parameters, &run.StartedAt, &finishedAt, &run.Status); err != nil {
			return nil, fmt.Errorf("scanning watch run: %w", err)
		}
		if finishedAt.Valid {
			t := finishedAt.Time
			run.FinishedAt = &t
		}
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// Seed upserts. All are idempotent: re-running a load never deletes rows,
// it only refreshes payloads in place.

func (s *SQLiteRepository) UpsertVisaSubclass(v *model.VisaSubclass) error {
	if v.SubclassCode == "" || v.Name == "" {
		return fmt.Errorf("visa subclass: subclass_code and name are required")
	}
	_, err := s.db.Exec(`
		INSERT INTO visa_subclass (subclass_code, stream, name, description)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (subclass_code, stream) DO UPDATE SET
			name = excluded.name,
			description = excluded.description`,
		v.SubclassCode, v.Stream, v.Name, v.Description)
	if err != nil {
		return fmt.Errorf("upserting visa subclass %s: %w", v.SubclassCode, err)
	}
	return nil
}

func (s *SQLiteRepository) UpsertRequirement(id, subclassCode string, payload []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO requirement (requirement_id, subclass_code, payload_json)
		VALUES (?, ?, ?)
		ON CONFLICT (requirement_id) DO UPDATE SET
			subclass_code = excluded.subclass_code,
			payload_json = excluded.payload_json`,
		id, subclassCode, string(payload))
	if err != nil {
		return fmt.Errorf("upserting requirement %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteRepository) UpsertEvidenceItem(id, requirementID string, payload []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO evidence_item (evidence_id, requirement_id, payload_json)
		VALUES (?, ?, ?)
		ON CONFLICT (evidence_id) DO UPDATE SET
			requirement_id = excluded.requirement_id,
			payload_json = excluded.payload_json`,
		id, requirementID, string(payload))
	if err != nil {
		return fmt.Errorf("upserting evidence item %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteRepository) UpsertFlagTemplate(id string, payload []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO flag_template (flag_id, payload_json)
		VALUES (?, ?)
		ON CONFLICT (flag_id) DO UPDATE SET
			payload_json = excluded.payload_json`,
		id, string(payload))
	if err != nil {
		return fmt.Errorf("upserting flag template %s: %w", id, err)
	}
	return nil
}

/// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteRepository) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteRepository) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Migrate brings the database schema to the latest version.
func (s *SQLiteRepository) Migrate() error {
	return migrations.MigrateUp(s.db)
}

// Close closes the database connection.
func (s *SQLiteRepository) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteRepository implements watch.Repository
var _ watch.Repository = (*SQLiteRepository)(nil)
