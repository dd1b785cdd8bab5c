package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"skyhaul/internal/catalog"
	"skyhaul/internal/config"
	"skyhaul/internal/logging"
	"skyhaul/internal/orders"
	"skyhaul/internal/pipeline"
)

// commandContext carries lazily constructed dependencies shared across
// subcommands. Everything is built on first use so cheap commands never pay
// for the store or the catalog client.
type commandContext struct {
	configFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error

	storeOnce sync.Once
	store     *orders.Store
	storeErr  error

	catalogOnce sync.Once
	catalog     *catalog.Client
	catalogErr  error

	lock *flock.Flock

	closeOnce sync.Once
	closeErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolvedPath, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolvedPath
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) loggerValue() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) storeValue() (*orders.Store, error) {
	c.storeOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.storeErr = err
			return
		}
		c.store, c.storeErr = orders.Open(cfg)
	})
	return c.store, c.storeErr
}

func (c *commandContext) catalogValue() (*catalog.Client, error) {
	c.catalogOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.catalogErr = err
			return
		}
		if cfg.Catalog.APIKey == "" {
			path := c.configPath
			if path == "" {
				path = "~/.config/skyhaul/config.toml"
			}
			c.catalogErr = fmt.Errorf("no API key configured. Set SKYHAUL_API_KEY or edit %s (create with 'skyhaul config init')", path)
			return
		}
		c.catalog, c.catalogErr = catalog.NewClient(catalog.Config{
			APIKey:          cfg.Catalog.APIKey,
			BaseURL:         cfg.Catalog.BaseURL,
			TimeoutSeconds:  cfg.Catalog.TimeoutSeconds,
			PageDelay:       time.Duration(cfg.Catalog.PageDelaySecs * float64(time.Second)),
			CloudCoverMax:   cfg.Catalog.CloudCoverMax,
			QualityCategory: cfg.Catalog.QualityCategory,
		})
	})
	return c.catalog, c.catalogErr
}

func (c *commandContext) pipelineValue() (*pipeline.Pipeline, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	client, err := c.catalogValue()
	if err != nil {
		return nil, err
	}
	store, err := c.storeValue()
	if err != nil {
		return nil, err
	}
	logger, err := c.loggerValue()
	if err != nil {
		return nil, err
	}
	return pipeline.New(cfg, client, store, logger)
}

// acquireLock takes the single-instance lock guarding the order database.
// The returned release function must run before the process exits.
func (c *commandContext) acquireLock() (func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if c.lock == nil {
		c.lock = flock.New(filepath.Join(cfg.Storage.LogDir, "skyhaul.lock"))
	}
	ok, err := c.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, errors.New("another skyhaul instance is already running")
	}
	return func() { _ = c.lock.Unlock() }, nil
}

// Close releases whatever the context opened. Safe to call more than once.
func (c *commandContext) Close() error {
	c.closeOnce.Do(func() {
		if c.store != nil {
			c.closeErr = c.store.Close()
		}
	})
	return c.closeErr
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
