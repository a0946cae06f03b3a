package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"kbwatch/internal/watch"
)

// FileSystemStore writes snapshots as files under a root directory, one
// file per capture, named by source identifier and capture timestamp.
// Existing snapshots are never overwritten.
type FileSystemStore struct {
	root string
}

// NewFileSystemStore creates a filesystem store rooted at the given path,
// creating the directory if absent.
func NewFileSystemStore(root string) (*FileSystemStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &FileSystemStore{root: root}, nil
}

// Put writes content to a new snapshot file and returns its metadata.
// Refuses to clobber an existing capture: snapshots are append-only.
func (s *FileSystemStore) Put(_ context.Context, sourceID string, content []byte, capturedAt time.Time) (*watch.SnapshotMetadata, error) {
	name := watch.SnapshotName(sourceID, capturedAt)
	destPath := filepath.Join(s.root, name)

	if _, err := os.Stat(destPath); err == nil {
		return nil, fmt.Errorf("snapshot already exists: %s", destPath)
	}

	if err := writeFile(destPath, bytes.NewReader(content), int64(len(content))); err != nil {
		return nil, err
	}

	return &watch.SnapshotMetadata{
		SourceID:    sourceID,
		Path:        destPath,
		ContentHash: watch.HashContent(content),
		ByteSize:    int64(len(content)),
		CapturedAt:  capturedAt.UTC(),
	}, nil
}

// writeFile writes data from r to the specified path using atomic write
// (temp file + rename).
func writeFile(destPath string, r io.Reader, expectedSize int64) error {
	// Create temp file in the same directory to ensure atomic rename works
	dir := filepath.Dir(destPath)
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// Compile-time check that FileSystemStore implements watch.SnapshotStore
var _ watch.SnapshotStore = (*FileSystemStore)(nil)
