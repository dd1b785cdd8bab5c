package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"skyhaul/internal/config"
)

func TestLoadDefaultsUseEnvAPIKeyAndExpandPaths(t *testing.T) {
	t.Setenv("SKYHAUL_API_KEY", "test-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "skyhaul")
	if cfg.Storage.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Storage.DataDir, wantData)
	}
	if cfg.Storage.DatabasePath != filepath.Join(wantData, "skyhaul.db") {
		t.Fatalf("unexpected database path: %q", cfg.Storage.DatabasePath)
	}
	if cfg.Storage.LogDir != filepath.Join(wantData, "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Storage.LogDir)
	}
	if cfg.Downloads.Directory != filepath.Join(wantData, "downloads") {
		t.Fatalf("unexpected downloads dir: %q", cfg.Downloads.Directory)
	}
	if cfg.Catalog.APIKey != "test-key" {
		t.Fatalf("expected API key from env, got %q", cfg.Catalog.APIKey)
	}
	if cfg.Catalog.BaseURL != config.Default().Catalog.BaseURL {
		t.Fatalf("unexpected base url: %q", cfg.Catalog.BaseURL)
	}
	if cfg.Search.Cadence != "weekly" {
		t.Fatalf("expected weekly cadence default, got %q", cfg.Search.Cadence)
	}
	if cfg.Search.MinCoveragePct != 95.0 {
		t.Fatalf("unexpected coverage threshold: %v", cfg.Search.MinCoveragePct)
	}
	if !cfg.FastPath.Enabled {
		t.Fatal("expected fast path enabled by default")
	}
	if cfg.FastPath.Binary != "s5cmd" {
		t.Fatalf("unexpected fast path binary: %q", cfg.FastPath.Binary)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Storage.DataDir, cfg.Storage.LogDir, cfg.Downloads.Directory} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadParsesFileAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[catalog]",
		`api_key = "abc123"`,
		`base_url = "https://catalog.example.com/"`,
		"",
		"[search]",
		`cadence = "Monthly"`,
		"min_coverage_pct = 60.0",
		"",
		"[storage]",
		`data_dir = "` + filepath.Join(dir, "data") + `"`,
		"",
		"[objectstore]",
		`bucket_url = "s3://imagery-archive"`,
		`prefix = "/planet/"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != path {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Catalog.BaseURL != "https://catalog.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Catalog.BaseURL)
	}
	if cfg.Search.Cadence != "monthly" {
		t.Fatalf("expected cadence lowercased, got %q", cfg.Search.Cadence)
	}
	if cfg.ObjectStore.Prefix != "planet" {
		t.Fatalf("expected prefix trimmed, got %q", cfg.ObjectStore.Prefix)
	}
	if cfg.Downloads.Concurrency != config.Default().Downloads.Concurrency {
		t.Fatalf("expected default concurrency, got %d", cfg.Downloads.Concurrency)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:    "cloud cover out of range",
			mutate:  func(c *config.Config) { c.Catalog.CloudCoverMax = 1.5 },
			wantErr: "cloud_cover_max",
		},
		{
			name:    "bad cadence",
			mutate:  func(c *config.Config) { c.Search.Cadence = "hourly" },
			wantErr: "search.cadence",
		},
		{
			name:    "coverage over 100",
			mutate:  func(c *config.Config) { c.Search.MinCoveragePct = 150 },
			wantErr: "min_coverage_pct",
		},
		{
			name:    "bad log format",
			mutate:  func(c *config.Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestCreateSampleWritesParseableConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	t.Setenv("SKYHAUL_API_KEY", "sample-key")
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load of sample failed: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Catalog.BaseURL == "" {
		t.Fatal("expected base url populated")
	}
}
