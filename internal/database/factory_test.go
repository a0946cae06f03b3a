package database

import (
	"path/filepath"
	"strings"
	"testing"

	"kbwatch/internal/config"
)

func TestNewRepositoryFromConfig(t *testing.T) {
	t.Run("memory database", func(t *testing.T) {
		cfg := config.DatabaseConfig{Type: "memory"}
		got, err := NewRepositoryFromConfig(cfg)

		if err != nil {
			t.Errorf("NewRepositoryFromConfig() unexpected error: %v", err)
			return
		}

		if got == nil {
			t.Fatal("NewRepositoryFromConfig() returned nil")
		}
		defer got.Close()

		// A fresh repository should already be migrated.
		if err := got.CheckMigrations(); err != nil {
			t.Errorf("CheckMigrations() error = %v", err)
		}
	})

	t.Run("sqlite database", func(t *testing.T) {
		dataDir := filepath.Join(t.TempDir(), "data")
		cfg := config.DatabaseConfig{
			Type:    "sqlite",
			DataDir: dataDir,
		}
		got, err := NewRepositoryFromConfig(cfg)

		if err != nil {
			t.Errorf("NewRepositoryFromConfig() unexpected error: %v", err)
			return
		}

		if got == nil {
			t.Fatal("NewRepositoryFromConfig() returned nil")
		}
		defer got.Close()

		want := filepath.Join(dataDir, "kbwatch.db")
		if got.Path() != want {
			t.Errorf("Path() = %q, want %q", got.Path(), want)
		}
	})

	t.Run("sqlite database without data_dir", func(t *testing.T) {
		cfg := config.DatabaseConfig{Type: "sqlite"}
		got, err := NewRepositoryFromConfig(cfg)

		if err == nil {
			t.Error("NewRepositoryFromConfig() expected error for missing data_dir, got nil")
		}

		if got != nil {
			t.Error("NewRepositoryFromConfig() should return nil on error")
			got.Close()
		}
	})

	t.Run("unknown database type", func(t *testing.T) {
		cfg := config.DatabaseConfig{Type: "postgres"}
		got, err := NewRepositoryFromConfig(cfg)

		if err == nil {
			t.Error("NewRepositoryFromConfig() expected error for unknown type, got nil")
		}
		if err != nil && !strings.Contains(err.Error(), "valid: sqlite, memory") {
			t.Errorf("error %q should list valid types", err)
		}

		if got != nil {
			t.Error("NewRepositoryFromConfig() should return nil on error")
			got.Close()
		}
	})
}
