package config

import (
	"errors"
	"fmt"
)

var validCadences = map[string]struct{}{
	"daily":   {},
	"weekly":  {},
	"monthly": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateSearch(); err != nil {
		return err
	}
	if err := c.validateDownloads(); err != nil {
		return err
	}
	if err := c.validateFastPath(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateCatalog() error {
	if c.Catalog.CloudCoverMax < 0 || c.Catalog.CloudCoverMax > 1 {
		return errors.New("catalog.cloud_cover_max must be between 0 and 1")
	}
	if c.Catalog.PageDelaySecs < 0 {
		return errors.New("catalog.page_delay_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateSearch() error {
	if c.Search.MinCoveragePct < 0 || c.Search.MinCoveragePct > 100 {
		return errors.New("search.min_coverage_pct must be between 0 and 100")
	}
	if _, ok := validCadences[c.Search.Cadence]; !ok {
		return fmt.Errorf("search.cadence must be one of daily, weekly, monthly (got %q)", c.Search.Cadence)
	}
	if c.Search.MaxChunkMonths < 1 {
		return errors.New("search.max_chunk_months must be at least 1")
	}
	return nil
}

func (c *Config) validateDownloads() error {
	return ensurePositiveMap(map[string]int{
		"downloads.concurrency":      c.Downloads.Concurrency,
		"downloads.timeout_seconds":  c.Downloads.TimeoutSeconds,
		"downloads.chunk_size_bytes": c.Downloads.ChunkSizeBytes,
	})
}

func (c *Config) validateFastPath() error {
	if !c.FastPath.Enabled {
		return nil
	}
	return ensurePositiveMap(map[string]int{
		"fastpath.workers":         c.FastPath.Workers,
		"fastpath.timeout_seconds": c.FastPath.TimeoutSeconds,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "pretty", "json":
	default:
		return fmt.Errorf("logging.format must be pretty or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for name, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive (got %d)", name, value)
		}
	}
	return nil
}
