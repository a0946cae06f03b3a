package watch

import (
	"context"
	"fmt"
	"time"
)

// SnapshotMetadata describes one raw-bytes capture on durable storage.
// It is not persisted as its own record; it feeds the source document's
// raw content location and hash-equality checks.
type SnapshotMetadata struct {
	SourceID    string
	Path        string
	ContentHash string // SHA-256 hex
	ByteSize    int64
	CapturedAt  time.Time // UTC
}

// SnapshotStore persists raw content captures. Every Put writes exactly
// one new object; prior snapshots are never overwritten or deleted, so
// repeated unchanged captures still accumulate for audit history.
// Storage faults propagate to the caller uninterpreted; no retries.
type SnapshotStore interface {
	Put(ctx context.Context, sourceID string, content []byte, capturedAt time.Time) (*SnapshotMetadata, error)
}

// SnapshotName returns the object name for a capture:
// {sourceID}_{UTC timestamp as YYYYMMDDThhmmssZ}.bin. The name derives
// from the capture time, not the content hash, so identical content
// captured twice still lands in distinct objects.
func SnapshotName(sourceID string, capturedAt time.Time) string {
	return fmt.Sprintf("%s_%s.bin", sourceID, capturedAt.UTC().Format("20060102T150405Z"))
}
