package watch

import "time"

// Event types produced by BuildChangeEvent. The orchestrator refines
// EventTypeChangeDetected into the family-specific update tag
// (text_change, dataset_update) before persisting.
const (
	EventTypeInitialSnapshot = "initial_snapshot"
	EventTypeChangeDetected  = "change_detected"
)

// Event is the structural decision that a change exists: which source,
// which hashes, and where the snapshot landed. ImpactScore is nil and
// RequiresReview false until the orchestrator layers in scoring; that
// separation keeps the "event exists" predicate testable with no scoring
// dependency.
type Event struct {
	EventType      string
	SourceID       string
	PrevHash       string // empty when no prior document exists
	CurrHash       string
	SnapshotPath   string
	RequiresReview bool
	ImpactScore    *int
	DetectedAt     time.Time
}

// BuildChangeEvent returns an Event when currHash differs from prevHash,
// or nil when they are equal: identical-hash observations never produce
// an event. prevHash is empty for the first observation of a source,
// which yields an initial_snapshot event.
func BuildChangeEvent(sourceID, prevHash, currHash, snapshotPath string, detectedAt time.Time) *Event {
	if prevHash == currHash {
		return nil
	}

	eventType := EventTypeChangeDetected
	if prevHash == "" {
		eventType = EventTypeInitialSnapshot
	}

	return &Event{
		EventType:    eventType,
		SourceID:     sourceID,
		PrevHash:     prevHash,
		CurrHash:     currHash,
		SnapshotPath: snapshotPath,
		DetectedAt:   detectedAt,
	}
}
