package snapshot

import (
	"context"
	"strings"
	"testing"

	"kbwatch/internal/config"
)

func TestNewStoreFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.SnapshotsConfig
		wantErr string
	}{
		{
			name: "memory store",
			cfg:  config.SnapshotsConfig{Type: "memory"},
		},
		{
			name: "filesystem store",
			cfg: config.SnapshotsConfig{
				Type: "filesystem",
				Root: t.TempDir(),
			},
		},
		{
			name:    "filesystem store without root",
			cfg:     config.SnapshotsConfig{Type: "filesystem"},
			wantErr: "requires root",
		},
		{
			name: "s3 store without bucket",
			cfg: config.SnapshotsConfig{
				Type:     "s3",
				S3Region: "ap-southeast-2",
			},
			wantErr: "requires s3_bucket and s3_region",
		},
		{
			name: "s3 store without region",
			cfg: config.SnapshotsConfig{
				Type:     "s3",
				S3Bucket: "kbwatch-snapshots",
			},
			wantErr: "requires s3_bucket and s3_region",
		},
		{
			name:    "unknown store type",
			cfg:     config.SnapshotsConfig{Type: "gcs"},
			wantErr: "unknown snapshot store type: gcs (valid: filesystem, s3, memory)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewStoreFromConfig(context.Background(), tt.cfg)

			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("NewStoreFromConfig() expected error containing %q, got nil", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("NewStoreFromConfig() error = %q, want containing %q", err, tt.wantErr)
				}
				if got != nil {
					t.Error("NewStoreFromConfig() should return nil on error")
				}
				return
			}

			if err != nil {
				t.Fatalf("NewStoreFromConfig() unexpected error: %v", err)
			}
			if got == nil {
				t.Error("NewStoreFromConfig() returned nil")
			}
		})
	}
}
