package testutil

import (
	"context"
	"fmt"
	"time"

	"kbwatch/internal/watch"
)

// FailingSnapshotStore fails every Put. Useful for exercising the
// snapshot-failure path in the watch service.
type FailingSnapshotStore struct{}

func (FailingSnapshotStore) Put(_ context.Context, sourceID string, _ []byte, _ time.Time) (*watch.SnapshotMetadata, error) {
	return nil, fmt.Errorf("snapshot store unavailable for %s", sourceID)
}
