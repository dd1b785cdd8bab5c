package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"skyhaul/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the file to set catalog.api_key (or export SKYHAUL_API_KEY) before ordering imagery.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
			if !ctx.configExists {
				fmt.Fprintln(out, "Config file does not exist; showing defaults")
			}
			fmt.Fprintln(out)

			writeConfigSection(out, "catalog", [][2]string{
				{"api_key", maskSecret(cfg.Catalog.APIKey)},
				{"base_url", cfg.Catalog.BaseURL},
				{"timeout_seconds", fmt.Sprintf("%d", cfg.Catalog.TimeoutSeconds)},
				{"page_delay_seconds", fmt.Sprintf("%g", cfg.Catalog.PageDelaySecs)},
				{"cloud_cover_max", fmt.Sprintf("%g", cfg.Catalog.CloudCoverMax)},
				{"quality_category", cfg.Catalog.QualityCategory},
			})
			writeConfigSection(out, "search", [][2]string{
				{"min_coverage_pct", fmt.Sprintf("%g", cfg.Search.MinCoveragePct)},
				{"cadence", cfg.Search.Cadence},
				{"max_chunk_months", fmt.Sprintf("%d", cfg.Search.MaxChunkMonths)},
			})
			writeConfigSection(out, "storage", [][2]string{
				{"data_dir", cfg.Storage.DataDir},
				{"database_path", cfg.Storage.DatabasePath},
				{"log_dir", cfg.Storage.LogDir},
			})
			writeConfigSection(out, "downloads", [][2]string{
				{"directory", cfg.Downloads.Directory},
				{"concurrency", fmt.Sprintf("%d", cfg.Downloads.Concurrency)},
				{"timeout_seconds", fmt.Sprintf("%d", cfg.Downloads.TimeoutSeconds)},
				{"overwrite", yesNo(cfg.Downloads.Overwrite)},
			})
			writeConfigSection(out, "objectstore", [][2]string{
				{"bucket_url", orUnset(cfg.ObjectStore.BucketURL)},
				{"prefix", orUnset(cfg.ObjectStore.Prefix)},
			})
			writeConfigSection(out, "fastpath", [][2]string{
				{"enabled", yesNo(cfg.FastPath.Enabled)},
				{"binary", cfg.FastPath.Binary},
				{"workers", fmt.Sprintf("%d", cfg.FastPath.Workers)},
				{"timeout_seconds", fmt.Sprintf("%d", cfg.FastPath.TimeoutSeconds)},
			})
			writeConfigSection(out, "logging", [][2]string{
				{"format", cfg.Logging.Format},
				{"level", cfg.Logging.Level},
			})
			return nil
		},
	}
}

func writeConfigSection(out io.Writer, name string, entries [][2]string) {
	fmt.Fprintf(out, "[%s]\n", name)
	for _, entry := range entries {
		fmt.Fprintf(out, "  %-20s %s\n", entry[0], entry[1])
	}
	fmt.Fprintln(out)
}

// maskSecret keeps the last four characters so keys stay recognizable
// without being copyable from terminal scrollback.
func maskSecret(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "(unset)"
	}
	if len(value) <= 4 {
		return "****"
	}
	return "****" + value[len(value)-4:]
}

func orUnset(value string) string {
	if strings.TrimSpace(value) == "" {
		return "(unset)"
	}
	return value
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
