package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeCatalog(); err != nil {
		return err
	}
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	if err := c.normalizeDownloads(); err != nil {
		return err
	}
	c.normalizeSearch()
	c.normalizeObjectStore()
	c.normalizeFastPath()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeCatalog() error {
	if c.Catalog.APIKey == "" {
		if value, ok := os.LookupEnv("SKYHAUL_API_KEY"); ok {
			c.Catalog.APIKey = strings.TrimSpace(value)
		}
	}
	c.Catalog.BaseURL = strings.TrimRight(strings.TrimSpace(c.Catalog.BaseURL), "/")
	if c.Catalog.BaseURL == "" {
		c.Catalog.BaseURL = defaultBaseURL
	}
	if c.Catalog.TimeoutSeconds <= 0 {
		c.Catalog.TimeoutSeconds = defaultTimeoutSeconds
	}
	c.Catalog.QualityCategory = strings.TrimSpace(c.Catalog.QualityCategory)
	if c.Catalog.QualityCategory == "" {
		c.Catalog.QualityCategory = defaultQualityCategory
	}
	return nil
}

func (c *Config) normalizeSearch() {
	c.Search.Cadence = strings.ToLower(strings.TrimSpace(c.Search.Cadence))
	if c.Search.Cadence == "" {
		c.Search.Cadence = defaultCadence
	}
	if c.Search.MaxChunkMonths <= 0 {
		c.Search.MaxChunkMonths = defaultMaxChunkMonths
	}
}

func (c *Config) normalizeStorage() error {
	var err error
	if strings.TrimSpace(c.Storage.DataDir) == "" {
		c.Storage.DataDir = defaultDataDir
	}
	if c.Storage.DataDir, err = expandPath(c.Storage.DataDir); err != nil {
		return fmt.Errorf("storage.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Storage.DatabasePath) == "" {
		c.Storage.DatabasePath = filepath.Join(c.Storage.DataDir, "skyhaul.db")
	}
	if c.Storage.DatabasePath, err = expandPath(c.Storage.DatabasePath); err != nil {
		return fmt.Errorf("storage.database_path: %w", err)
	}
	if strings.TrimSpace(c.Storage.LogDir) == "" {
		c.Storage.LogDir = filepath.Join(c.Storage.DataDir, "logs")
	}
	if c.Storage.LogDir, err = expandPath(c.Storage.LogDir); err != nil {
		return fmt.Errorf("storage.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDownloads() error {
	var err error
	if strings.TrimSpace(c.Downloads.Directory) == "" {
		c.Downloads.Directory = filepath.Join(c.Storage.DataDir, "downloads")
	}
	if c.Downloads.Directory, err = expandPath(c.Downloads.Directory); err != nil {
		return fmt.Errorf("downloads.directory: %w", err)
	}
	if c.Downloads.Concurrency <= 0 {
		c.Downloads.Concurrency = defaultDownloadConcurrency
	}
	if c.Downloads.TimeoutSeconds <= 0 {
		c.Downloads.TimeoutSeconds = defaultDownloadTimeout
	}
	if c.Downloads.ChunkSizeBytes <= 0 {
		c.Downloads.ChunkSizeBytes = defaultDownloadChunkBytes
	}
	return nil
}

func (c *Config) normalizeObjectStore() {
	c.ObjectStore.BucketURL = strings.TrimSpace(c.ObjectStore.BucketURL)
	c.ObjectStore.Prefix = strings.Trim(strings.TrimSpace(c.ObjectStore.Prefix), "/")
}

func (c *Config) normalizeFastPath() {
	c.FastPath.Binary = strings.TrimSpace(c.FastPath.Binary)
	if c.FastPath.Binary == "" {
		c.FastPath.Binary = defaultFastPathBinary
	}
	if c.FastPath.Workers <= 0 {
		c.FastPath.Workers = defaultFastPathWorkers
	}
	if c.FastPath.TimeoutSeconds <= 0 {
		c.FastPath.TimeoutSeconds = defaultFastPathTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
