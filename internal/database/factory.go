package database

import (
	"fmt"
	"os"
	"path/filepath"

	"kbwatch/internal/config"
)

// NewRepositoryFromConfig creates a SQLiteRepository based on the
// database config type and brings its schema to the latest version.
func NewRepositoryFromConfig(cfg config.DatabaseConfig) (*SQLiteRepository, error) {
	var path string
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		path = filepath.Join(cfg.DataDir, "kbwatch.db")
	case "memory":
		path = ":memory:"
	default:
		return nil, fmt.Errorf("unknown database type: %s (valid: sqlite, memory)", cfg.Type)
	}

	repo, err := NewSQLiteRepository(path)
	if err != nil {
		return nil, err
	}
	if err := repo.Migrate(); err != nil {
		repo.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return repo, nil
}
