package model

import (
	"fmt"
	"time"
)

// Document lifecycle status. Documents are append-only: every capture of
// changed content creates a new row and the newest retrieved_at wins the
// "latest" lookup for a canonical URL.
const StatusCurrent = "current"

// Change types persisted on change events.
const (
	ChangeTypeInitialSnapshot = "initial_snapshot"
	ChangeTypeTextChange      = "text_change"
	ChangeTypeDatasetUpdate   = "dataset_update"
)

// SourceDocument is a point-in-time capture of external content.
// Rows are immutable once created; this system never mutates or deletes them.
type SourceDocument struct {
	ID            string // UUID
	SourceType    string // authority tier, e.g. FRL_ACT, HOMEAFFAIRS_PAGE
	Title         string
	CanonicalURL  string // identity key for latest-document lookups
	ContentHash   string // SHA-256 hex of canonicalized content
	RawBlobURI    string // snapshot location on durable storage
	RetrievedAt   time.Time
	Metadata      map[string]any
	Status        string
	EffectiveFrom *time.Time
}

// Validate checks the fields required before a document can be persisted.
func (d *SourceDocument) Validate() error {
	switch {
	case d.ID == "":
		return fmt.Errorf("source document: id is required")
	case d.SourceType == "":
		return fmt.Errorf("source document: source_type is required")
	case d.CanonicalURL == "":
		return fmt.Errorf("source document: canonical_url is required")
	case d.ContentHash == "":
		return fmt.Errorf("source document: content_hash is required")
	case d.RawBlobURI == "":
		return fmt.Errorf("source document: raw_blob_uri is required")
	case d.RetrievedAt.IsZero():
		return fmt.Errorf("source document: retrieved_at is required")
	}
	return nil
}

// ChangeEvent records a detected transition between two source documents,
// or the first-ever observation of a canonical URL (SourceDocIDOld empty).
// Immutable once created.
type ChangeEvent struct {
	ID              string // UUID
	SourceDocIDNew  string
	SourceDocIDOld  string // empty for the first observation of a URL
	ChangeType      string
	ImpactScore     int // 0-100
	RequiresReview  bool
	Summary         string
	AffectedVisaIDs []string
	DetectedAt      time.Time
}

// Validate checks the fields required before an event can be persisted.
func (e *ChangeEvent) Validate() error {
	switch {
	case e.ID == "":
		return fmt.Errorf("change event: id is required")
	case e.SourceDocIDNew == "":
		return fmt.Errorf("change event: source_doc_id_new is required")
	case e.ChangeType == "":
		return fmt.Errorf("change event: change_type is required")
	case e.ImpactScore < 0 || e.ImpactScore > 100:
		return fmt.Errorf("change event: impact_score %d outside [0,100]", e.ImpactScore)
	case e.DetectedAt.IsZero():
		return fmt.Errorf("change event: detected_at is required")
	}
	return nil
}

// WatchRun tracks one orchestrator invocation for provenance.
// Runs are created in memory with ID=0 and persisted with an
// auto-increment ID before any repository write happens.
type WatchRun struct {
	ID         int64
	Operation  string // CLI command, e.g. "Watch", "SeedLoad"
	Parameters string
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     string // "running", "success", or "error"
}

// VisaSubclass is one entry of the visa group catalog the knowledge base
// covers. Seeded, not watched.
type VisaSubclass struct {
	SubclassCode string
	Stream       string
	Name         string
	Description  string
}
