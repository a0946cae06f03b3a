package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"kbwatch/internal/watch"
)

func TestFileSystemStore_Put(t *testing.T) {
	root := t.TempDir()
	store, err := NewFileSystemStore(root)
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}

	capturedAt := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	content := []byte("snapshot body")

	meta, err := store.Put(context.Background(), "frl_migration_act", content, capturedAt)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	wantName := "frl_migration_act_20240115T103000Z.bin"
	if filepath.Base(meta.Path) != wantName {
		t.Errorf("Path base = %q, want %q", filepath.Base(meta.Path), wantName)
	}
	if meta.ByteSize != int64(len(content)) {
		t.Errorf("ByteSize = %d, want %d", meta.ByteSize, len(content))
	}
	if meta.ContentHash != watch.HashContent(content) {
		t.Errorf("ContentHash = %q, want hash of content", meta.ContentHash)
	}

	got, err := os.ReadFile(meta.Path)
	if err != nil {
		t.Fatalf("reading snapshot: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("snapshot content = %q, want %q", got, content)
	}
}

func TestFileSystemStore_RefusesClobber(t *testing.T) {
	store, err := NewFileSystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}

	capturedAt := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	if _, err := store.Put(context.Background(), "src", []byte("first"), capturedAt); err != nil {
		t.Fatalf("first Put() error = %v", err)
	}

	if _, err := store.Put(context.Background(), "src", []byte("second"), capturedAt); err == nil {
		t.Fatal("second Put() error = nil, want already-exists error")
	}
}

func TestFileSystemStore_DistinctTimesRetained(t *testing.T) {
	root := t.TempDir()
	store, err := NewFileSystemStore(root)
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}

	base := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if _, err := store.Put(context.Background(), "src", []byte("body"), base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("Put() #%d error = %v", i, err)
		}
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("snapshot files = %d, want 3", len(entries))
	}
}

func TestSnapshotName_UTC(t *testing.T) {
	// Non-UTC capture times normalize into the UTC filename.
	loc := time.FixedZone("AEST", 10*60*60)
	capturedAt := time.Date(2024, 1, 15, 20, 30, 0, 0, loc)

	got := watch.SnapshotName("src", capturedAt)
	want := "src_20240115T103000Z.bin"
	if got != want {
		t.Errorf("SnapshotName() = %q, want %q", got, want)
	}
}
