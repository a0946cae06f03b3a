package watch

import "kbwatch/internal/model"

// Repository is the persistence boundary for source documents, change
// events, and watch-run provenance. Implementations own their transaction
// handling; the service performs no cross-call rollback, so a document
// insert followed by a failed event insert leaves a document without an
// event. That consistency gap is accepted and surfaced to the caller, not
// patched here.
type Repository interface {
	// GetLatestDocument returns the most recent document for a canonical
	// URL, or nil when the URL has never been captured.
	GetLatestDocument(canonicalURL string) (*model.SourceDocument, error)

	// InsertDocument persists a new immutable document record.
	InsertDocument(doc *model.SourceDocument) error

	// InsertChangeEvent persists a new immutable change event record.
	InsertChangeEvent(event *model.ChangeEvent) error

	// CreateWatchRun records the start of an orchestrator invocation and
	// returns the run with its auto-increment ID assigned.
	CreateWatchRun(operation string, parameters string) (*model.WatchRun, error)

	// FinishWatchRun stamps the run's finish time and final status.
	FinishWatchRun(id int64, status string) error

	// ListWatchRuns returns the most recent runs, newest first.
	ListWatchRuns(limit int) ([]*model.WatchRun, error)

	// Close closes the underlying store.
	Close() error
}
