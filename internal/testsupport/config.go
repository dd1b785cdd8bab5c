package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"skyhaul/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options. The fast path
// is disabled so tests never shell out to a real transfer binary.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Catalog.APIKey = "test"
	cfgVal.Storage.DataDir = filepath.Join(base, "data")
	cfgVal.Storage.DatabasePath = filepath.Join(base, "data", "skyhaul.db")
	cfgVal.Storage.LogDir = filepath.Join(base, "logs")
	cfgVal.Downloads.Directory = filepath.Join(base, "downloads")
	cfgVal.FastPath.Enabled = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithAPIKey sets the catalog API key on the test config.
func WithAPIKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Catalog.APIKey = key
	}
}

// WithBucketURL points the object-store destination at the given bucket.
func WithBucketURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.ObjectStore.BucketURL = url
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the default skyhaul external
// binaries are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"s5cmd"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Storage.DataDir)
}
