package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for kbwatch.
type Config struct {
	BaseDir   string          `toml:"base_dir"`
	LogDir    string          `toml:"log_dir"`
	Database  DatabaseConfig  `toml:"database"`
	Snapshots SnapshotsConfig `toml:"snapshots"`
	HTTP      HTTPConfig      `toml:"http"`
	Seed      SeedConfig      `toml:"seed"`
	Sources   []SourceConfig  `toml:"sources"`
}

// DatabaseConfig represents configuration for the metadata database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// SnapshotsConfig represents configuration for the snapshot store.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type SnapshotsConfig struct {
	Type string `toml:"type"` // "filesystem", "s3", or "memory"

	// FileSystem-specific fields (only used when Type == "filesystem")
	Root string `toml:"root,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket          string `toml:"s3_bucket,omitempty"`
	S3Prefix          string `toml:"s3_prefix,omitempty"`
	S3Region          string `toml:"s3_region,omitempty"`
	S3Endpoint        string `toml:"s3_endpoint,omitempty"`
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`
}

// HTTPConfig holds settings for the outbound HTTP client.
type HTTPConfig struct {
	TimeoutSec int    `toml:"timeout_sec"` // must be positive, defaults to 30
	UserAgent  string `toml:"user_agent,omitempty"`
}

// SeedConfig holds settings for loading the knowledge base seed data.
type SeedConfig struct {
	Dir string `toml:"dir,omitempty"`
}

// SourceConfig describes one watched source.
type SourceConfig struct {
	ID           string `toml:"id"`
	Family       string `toml:"family"` // "frl", "datagov", or "homeaffairs"
	SourceType   string `toml:"source_type"`
	Title        string `toml:"title"`
	CanonicalURL string `toml:"canonical_url"`

	// data.gov.au-specific fields (only used when Family == "datagov")
	DatasetID  string `toml:"dataset_id,omitempty"`
	CKANAPIURL string `toml:"ckan_api_url,omitempty"`
}

// NewConfig creates a new Config with the provided base directory and defaults.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "data"),
		},
		Snapshots: SnapshotsConfig{
			Type: "filesystem",
			Root: filepath.Join(baseDir, "snapshots"),
		},
		HTTP: HTTPConfig{
			TimeoutSec: 30,
		},
		Seed: SeedConfig{
			Dir: filepath.Join(baseDir, "seed"),
		},
	}
}

// Source returns the source with the given ID, or an error when it is not configured.
func (c *Config) Source(id string) (*SourceConfig, error) {
	for i := range c.Sources {
		if c.Sources[i].ID == id {
			return &c.Sources[i], nil
		}
	}
	return nil, fmt.Errorf("unknown source: %s", id)
}

// Validate checks the config for problems that would surface later as
// confusing runtime errors.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "sqlite":
		if c.Database.DataDir == "" {
			return fmt.Errorf("database type sqlite requires data_dir to be set")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown database type: %s (valid: sqlite, memory)", c.Database.Type)
	}

	switch c.Snapshots.Type {
	case "filesystem":
		if c.Snapshots.Root == "" {
			return fmt.Errorf("snapshot store type filesystem requires root to be set")
		}
	case "s3":
		if c.Snapshots.S3Bucket == "" || c.Snapshots.S3Region == "" {
			return fmt.Errorf("snapshot store type s3 requires s3_bucket and s3_region to be set")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown snapshot store type: %s (valid: filesystem, s3, memory)", c.Snapshots.Type)
	}

	if c.HTTP.TimeoutSec <= 0 {
		return fmt.Errorf("http timeout_sec must be positive, got %d", c.HTTP.TimeoutSec)
	}

	seen := make(map[string]bool)
	for i := range c.Sources {
		src := &c.Sources[i]
		if src.ID == "" {
			return fmt.Errorf("source %d: id is required", i)
		}
		if seen[src.ID] {
			return fmt.Errorf("duplicate source id: %s", src.ID)
		}
		seen[src.ID] = true
		switch src.Family {
		case "frl", "homeaffairs":
		case "datagov":
			if src.DatasetID == "" {
				return fmt.Errorf("source %s: family datagov requires dataset_id to be set", src.ID)
			}
		default:
			return fmt.Errorf("source %s: unknown family: %s (valid: frl, datagov, homeaffairs)", src.ID, src.Family)
		}
		if src.SourceType == "" {
			return fmt.Errorf("source %s: source_type is required", src.ID)
		}
		if src.CanonicalURL == "" {
			return fmt.Errorf("source %s: canonical_url is required", src.ID)
		}
	}
	return nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
// This is an internal helper and should not be exported.
func writeToFile(path string, cfg *Config) error {
	// Ensure the directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
