package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"skyhaul/internal/config"
	"skyhaul/internal/pipeline"
	"skyhaul/internal/transfer"
)

// downloadFlags select where finished artifacts land.
type downloadFlags struct {
	output    string
	overwrite bool
}

func (f *downloadFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Delivery target: \"s3\" for the configured bucket, or a directory path")
	cmd.Flags().BoolVar(&f.overwrite, "overwrite", false, "Replace files that already exist at the destination")
}

// destination resolves the delivery target. The returned closer is non-nil
// for bucket destinations and must run after the download finishes.
func (f *downloadFlags) destination(ctx context.Context, cfg *config.Config) (transfer.Destination, func() error, error) {
	target := strings.TrimSpace(f.output)
	if strings.EqualFold(target, "s3") {
		if strings.TrimSpace(cfg.ObjectStore.BucketURL) == "" {
			return nil, nil, errors.New("--output s3 requires objectstore.bucket_url in the configuration")
		}
		bucket, err := transfer.OpenBucket(ctx, cfg.ObjectStore.BucketURL, cfg.ObjectStore.Prefix)
		if err != nil {
			return nil, nil, err
		}
		bucket.BufferSize = cfg.Downloads.ChunkSizeBytes
		return bucket, bucket.Close, nil
	}
	if target == "" {
		target = cfg.Downloads.Directory
	}
	expanded, err := config.ExpandPath(target)
	if err != nil {
		return nil, nil, err
	}
	dir := transfer.NewDirDestination(expanded)
	dir.BufferSize = cfg.Downloads.ChunkSizeBytes
	return dir, nil, nil
}

func (f *downloadFlags) overwriteValue(cfg *config.Config) bool {
	return f.overwrite || cfg.Downloads.Overwrite
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var dl downloadFlags

	cmd := &cobra.Command{
		Use:   "status ORDER_ID",
		Short: "Poll an order and fetch its artifacts when ready",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			release, err := ctx.acquireLock()
			if err != nil {
				return err
			}
			defer release()

			p, err := ctx.pipelineValue()
			if err != nil {
				return err
			}
			cfg := ctx.configValue()

			dest, closeDest, err := dl.destination(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if closeDest != nil {
				defer closeDest()
			}

			progress := newDownloadProgress(cmd.ErrOrStderr(), "downloading")
			report, err := p.CheckOrder(cmd.Context(), args[0], pipeline.CheckOptions{
				Download: pipeline.DownloadOptions{
					Dest:      dest,
					Overwrite: dl.overwriteValue(cfg),
					OnResult:  progress.OnResult,
				},
			})
			progress.Finish()
			if err != nil {
				return err
			}

			printCheckReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	dl.register(cmd)
	return cmd
}

func printCheckReport(out io.Writer, report *pipeline.CheckReport) {
	switch {
	case report.Order != nil && !report.Order.Window.IsZero():
		fmt.Fprintf(out, "Order %s (%s, %s)\n", report.Order.ID, report.Order.AOILabel, report.Order.Window)
	case report.Order != nil:
		fmt.Fprintf(out, "Order %s (%s)\n", report.Order.ID, report.Order.AOILabel)
	default:
		fmt.Fprintf(out, "Order %s (not in the local database)\n", report.Status.ID)
	}

	if report.State != "" {
		fmt.Fprintf(out, "State: %s\n", report.State)
	} else {
		fmt.Fprintf(out, "State: %s (unrecognized)\n", report.Status.State)
	}
	for _, hint := range report.Hints {
		fmt.Fprintf(out, "  hint: %s\n", hint)
	}
	if report.Download != nil {
		fmt.Fprintf(out, "Files: %s\n", report.Download.Summary)
	}
}
