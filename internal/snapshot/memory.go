package snapshot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"kbwatch/internal/watch"
)

// MemoryStore keeps snapshots in memory, keyed by object name. Useful for
// testing. Safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewMemoryStore creates an empty in-memory snapshot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string][]byte)}
}

// Put stores a copy of content under the capture's object name.
// Like the durable backends, it refuses to clobber an existing capture.
func (m *MemoryStore) Put(_ context.Context, sourceID string, content []byte, capturedAt time.Time) (*watch.SnapshotMetadata, error) {
	name := watch.SnapshotName(sourceID, capturedAt)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[name]; ok {
		return nil, fmt.Errorf("snapshot already exists: %s", name)
	}

	data := make([]byte, len(content))
	copy(data, content)
	m.items[name] = data

	return &watch.SnapshotMetadata{
		SourceID:    sourceID,
		Path:        "memory://" + name,
		ContentHash: watch.HashContent(content),
		ByteSize:    int64(len(content)),
		CapturedAt:  capturedAt.UTC(),
	}, nil
}

// Get returns the stored content for an object name.
func (m *MemoryStore) Get(name string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.items[name]
	return data, ok
}

// Count returns the number of stored snapshots.
func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Compile-time check that MemoryStore implements watch.SnapshotStore
var _ watch.SnapshotStore = (*MemoryStore)(nil)
