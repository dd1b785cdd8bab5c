package config

const (
	defaultBaseURL         = "https://api.planet.com"
	defaultTimeoutSeconds  = 60
	defaultPageDelaySecs   = 1.0
	defaultQualityCategory = "standard"

	defaultMinCoveragePct = 95.0
	defaultCadence        = "weekly"
	defaultMaxChunkMonths = 6

	defaultDataDir = "~/.local/share/skyhaul"

	defaultDownloadConcurrency = 8
	defaultDownloadTimeout     = 300
	defaultDownloadChunkBytes  = 1 << 20

	defaultFastPathBinary  = "s5cmd"
	defaultFastPathWorkers = 20
	defaultFastPathTimeout = 3600

	defaultLogFormat = "pretty"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Catalog: Catalog{
			BaseURL:         defaultBaseURL,
			TimeoutSeconds:  defaultTimeoutSeconds,
			PageDelaySecs:   defaultPageDelaySecs,
			CloudCoverMax:   0,
			QualityCategory: defaultQualityCategory,
		},
		Search: Search{
			MinCoveragePct: defaultMinCoveragePct,
			Cadence:        defaultCadence,
			MaxChunkMonths: defaultMaxChunkMonths,
		},
		Storage: Storage{
			DataDir: defaultDataDir,
		},
		Downloads: Downloads{
			Concurrency:    defaultDownloadConcurrency,
			TimeoutSeconds: defaultDownloadTimeout,
			ChunkSizeBytes: defaultDownloadChunkBytes,
		},
		FastPath: FastPath{
			Enabled:        true,
			Binary:         defaultFastPathBinary,
			Workers:        defaultFastPathWorkers,
			TimeoutSeconds: defaultFastPathTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
