package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Catalog contains connection settings for the imagery catalog and
// fulfillment API.
type Catalog struct {
	APIKey          string  `toml:"api_key"`
	BaseURL         string  `toml:"base_url"`
	TimeoutSeconds  int     `toml:"timeout_seconds"`
	PageDelaySecs   float64 `toml:"page_delay_seconds"`
	CloudCoverMax   float64 `toml:"cloud_cover_max"`
	QualityCategory string  `toml:"quality_category"`
}

// Search contains scene-selection defaults.
type Search struct {
	MinCoveragePct float64 `toml:"min_coverage_pct"`
	Cadence        string  `toml:"cadence"`
	MaxChunkMonths int     `toml:"max_chunk_months"`
}

// Storage contains local data directories and the order database location.
type Storage struct {
	DataDir      string `toml:"data_dir"`
	DatabasePath string `toml:"database_path"`
	LogDir       string `toml:"log_dir"`
}

// Downloads contains settings for the per-file concurrent downloader.
type Downloads struct {
	Directory      string `toml:"directory"`
	Concurrency    int    `toml:"concurrency"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	ChunkSizeBytes int    `toml:"chunk_size_bytes"`
	Overwrite      bool   `toml:"overwrite"`
}

// ObjectStore contains the optional object-storage destination. An empty
// bucket URL disables object-store delivery and downloads land on disk.
type ObjectStore struct {
	BucketURL string `toml:"bucket_url"`
	Prefix    string `toml:"prefix"`
}

// FastPath contains settings for the external bulk-transfer tool.
type FastPath struct {
	Enabled        bool   `toml:"enabled"`
	Binary         string `toml:"binary"`
	Workers        int    `toml:"workers"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Skyhaul.
//
// Configuration sections by subsystem:
//   - Catalog: imagery catalog API credentials, timeouts, and filter bounds
//   - Search: scene-selection cadence, coverage threshold, and chunking
//   - Storage: data directory, order database, and log locations
//   - Downloads: concurrent downloader pool size and local target
//   - ObjectStore: optional bucket destination for downloaded artifacts
//   - FastPath: external bulk-transfer tool settings
//   - Logging: log format and level
type Config struct {
	Catalog     Catalog     `toml:"catalog"`
	Search      Search      `toml:"search"`
	Storage     Storage     `toml:"storage"`
	Downloads   Downloads   `toml:"downloads"`
	ObjectStore ObjectStore `toml:"objectstore"`
	FastPath    FastPath    `toml:"fastpath"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/skyhaul/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("skyhaul.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the pipeline writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Storage.DataDir, c.Storage.LogDir, c.Downloads.Directory} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if dir := filepath.Dir(c.Storage.DatabasePath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
