package watch

import (
	"context"
	"fmt"
	"strings"

	"kbwatch/internal/model"
)

// RunResult reports the outcome of one watch run.
type RunResult struct {
	// SourceDocID is the newly inserted document's ID, or the existing
	// latest document's ID when nothing changed.
	SourceDocID string
	// ChangeEventID is empty when no event was written.
	ChangeEventID  string
	ImpactScore    int
	RequiresReview bool
	Signals        []string
	Snapshot       *SnapshotMetadata
}

// WatchService composes fetch, canonicalization, hashing, snapshotting,
// impact scoring, and persistence into one end-to-end run per source.
// Runs are synchronous and self-contained: one fetch, one repository
// read, zero-or-more repository writes, one snapshot write. No state is
// shared between runs.
type WatchService struct {
	repo      Repository
	fetcher   Fetcher
	snapshots SnapshotStore
	logger    Logger
	clock     Clock
	idgen     IDGenerator
}

// NewWatchService creates a WatchService with the provided dependencies.
func NewWatchService(repo Repository, fetcher Fetcher, snapshots SnapshotStore, logger Logger, clock Clock, idgen IDGenerator) *WatchService {
	return &WatchService{
		repo:      repo,
		fetcher:   fetcher,
		snapshots: snapshots,
		logger:    logger,
		clock:     clock,
		idgen:     idgen,
	}
}

// Run executes one watch cycle for src. Three outcomes, driven by the
// stored hash for the source's canonical URL:
//
//   - no prior document: persist document + initial_snapshot event
//   - prior exists, hash unchanged: snapshot only (audit continuity),
//     no document or event written, zero-score result returned
//   - prior exists, hash changed: persist new document + scored event
//     carrying the old document's ID
//
// Document and event inserts are separate statements; a failure between
// them leaves a document without an event. Known consistency gap, not
// rolled back here.
func (s *WatchService) Run(ctx context.Context, src Source) (*RunResult, error) {
	if err := src.validate(); err != nil {
		return nil, err
	}

	prev, err := s.repo.GetLatestDocument(src.CanonicalURL)
	if err != nil {
		return nil, fmt.Errorf("looking up latest document: %w", err)
	}
	prevHash := ""
	prevDocID := ""
	if prev != nil {
		prevHash = prev.ContentHash
		prevDocID = prev.ID
	}

	raw, err := s.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", src.URL, err)
	}

	normalize := src.Normalize
	if normalize == nil {
		normalize = Identity
	}
	content, meta, err := normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalizing content for %s: %w", src.ID, err)
	}

	currHash := HashContent(content)
	now := s.clock.Now()

	// Snapshot before the change decision: unchanged captures are still
	// retained for audit continuity.
	snap, err := s.snapshots.Put(ctx, src.ID, content, now)
	if err != nil {
		return nil, fmt.Errorf("writing snapshot: %w", err)
	}

	event := BuildChangeEvent(src.ID, prevHash, currHash, snap.Path, now)
	if event == nil {
		s.logger.Debug("no change detected", "source", src.ID, "hash", currHash)
		return &RunResult{
			SourceDocID: prevDocID,
			ImpactScore: 0,
			Signals:     []string{"no change detected: identical content hash"},
			Snapshot:    snap,
		}, nil
	}

	// Previous content bytes are not re-fetched or retained at this
	// point, so the scorer always takes its initial-snapshot branch even
	// when a prior document exists. Known scope limitation: byte-level
	// diffing would require re-reading the prior snapshot.
	scored := Score(nil, content, src.Type)

	if meta == nil {
		meta = map[string]any{}
	}
	meta["source_id"] = src.ID
	meta["byte_size"] = snap.ByteSize

	doc := &model.SourceDocument{
		ID:           s.idgen.New(),
		SourceType:   src.Type,
		Title:        src.Title,
		CanonicalURL: src.CanonicalURL,
		ContentHash:  currHash,
		RawBlobURI:   snap.Path,
		RetrievedAt:  now,
		Metadata:     meta,
		Status:       model.StatusCurrent,
	}
	if err := s.repo.InsertDocument(doc); err != nil {
		return nil, fmt.Errorf("inserting source document: %w", err)
	}

	changeType := src.UpdateChangeType
	if changeType == "" {
		changeType = model.ChangeTypeTextChange
	}
	if event.EventType == EventTypeInitialSnapshot {
		changeType = model.ChangeTypeInitialSnapshot
	}

	summary := fmt.Sprintf("%s Signals: %s", src.summaryLine(meta), strings.Join(scored.Signals, "; "))

	ev := &model.ChangeEvent{
		ID:             s.idgen.New(),
		SourceDocIDNew: doc.ID,
		SourceDocIDOld: prevDocID,
		ChangeType:     changeType,
		ImpactScore:    scored.ImpactScore,
		RequiresReview: scored.RequiresReview,
		Summary:        summary,
		DetectedAt:     now,
	}
	if err := s.repo.InsertChangeEvent(ev); err != nil {
		return nil, fmt.Errorf("inserting change event: %w", err)
	}

	s.logger.Info("change recorded",
		"source", src.ID,
		"change_type", changeType,
		"impact_score", scored.ImpactScore,
		"requires_review", scored.RequiresReview,
	)

	return &RunResult{
		SourceDocID:    doc.ID,
		ChangeEventID:  ev.ID,
		ImpactScore:    scored.ImpactScore,
		RequiresReview: scored.RequiresReview,
		Signals:        scored.Signals,
		Snapshot:       snap,
	}, nil
}
