package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"skyhaul/internal/deps"
)

type checkLevel int

const (
	checkOK checkLevel = iota
	checkInfo
	checkWarn
	checkFail
)

func (l checkLevel) label() string {
	switch l {
	case checkOK:
		return "OK"
	case checkWarn:
		return "WARN"
	case checkFail:
		return "FAIL"
	default:
		return "INFO"
	}
}

func (l checkLevel) color() string {
	switch l {
	case checkOK:
		return ansiGreen
	case checkWarn:
		return ansiYellow
	case checkFail:
		return ansiRed
	case checkInfo:
		return ansiBlue
	default:
		return ""
	}
}

func checkLine(label string, level checkLevel, detail string, colorize bool) string {
	line := fmt.Sprintf("  %-18s [%s]", label, level.label())
	if detail != "" {
		line += " " + detail
	}
	if colorize {
		if c := level.color(); c != "" {
			return c + line + ansiReset
		}
	}
	return line
}

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and external tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			problems := 0

			emit := func(label string, level checkLevel, detail string) {
				if level == checkFail {
					problems++
				}
				fmt.Fprintln(out, checkLine(label, level, detail, colorize))
			}

			if ctx.configExists {
				emit("Config", checkOK, ctx.configPath)
			} else {
				emit("Config", checkInfo, fmt.Sprintf("%s (not found, using defaults)", ctx.configPath))
			}

			if strings.TrimSpace(cfg.Catalog.APIKey) == "" {
				emit("API key", checkFail, "catalog.api_key is not set")
			} else {
				emit("API key", checkOK, "configured")
			}
			emit("Catalog", checkInfo, cfg.Catalog.BaseURL)

			if store, err := ctx.storeValue(); err != nil {
				emit("Order database", checkFail, err.Error())
			} else {
				emit("Order database", checkOK, store.Path())
			}

			if info, err := os.Stat(cfg.Downloads.Directory); err != nil {
				emit("Downloads", checkFail, err.Error())
			} else if !info.IsDir() {
				emit("Downloads", checkFail, fmt.Sprintf("%s is not a directory", cfg.Downloads.Directory))
			} else {
				emit("Downloads", checkOK, cfg.Downloads.Directory)
			}

			if strings.TrimSpace(cfg.ObjectStore.BucketURL) == "" {
				emit("Object store", checkInfo, "not configured, downloads land on disk")
			} else {
				emit("Object store", checkOK, cfg.ObjectStore.BucketURL)
			}

			for _, status := range deps.CheckBinaries(cmd.Context(), deps.Defaults(cfg)) {
				detail := status.Detail
				if detail == "" {
					detail = status.Command
				}
				if !status.Available && status.Optional && !cfg.FastPath.Enabled {
					emit(status.Name, checkInfo, "fast path disabled")
					continue
				}
				emit(status.Name, binaryCheckLevel(status), detail)
			}

			if problems > 0 {
				return fmt.Errorf("doctor found %d problems", problems)
			}
			return nil
		},
	}
}

func binaryCheckLevel(status deps.Status) checkLevel {
	if status.Available {
		return checkOK
	}
	if status.Optional {
		return checkWarn
	}
	return checkFail
}
