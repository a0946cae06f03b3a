package snapshot

import (
	"context"
	"fmt"

	"kbwatch/internal/config"
	"kbwatch/internal/watch"
)

// NewStoreFromConfig creates a SnapshotStore implementation based on the
// snapshots config type.
func NewStoreFromConfig(ctx context.Context, cfg config.SnapshotsConfig) (watch.SnapshotStore, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(), nil
	case "filesystem":
		if cfg.Root == "" {
			return nil, fmt.Errorf("filesystem snapshot store requires root to be set")
		}
		return NewFileSystemStore(cfg.Root)
	case "s3":
		if cfg.S3Bucket == "" || cfg.S3Region == "" {
			return nil, fmt.Errorf("s3 snapshot store requires s3_bucket and s3_region to be set")
		}
		return NewS3Store(ctx, S3StoreConfig{
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
	default:
		return nil, fmt.Errorf("unknown snapshot store type: %s (valid: filesystem, s3, memory)", cfg.Type)
	}
}
