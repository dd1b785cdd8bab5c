package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"skyhaul/internal/catalog"
	"skyhaul/internal/daterange"
	"skyhaul/internal/pipeline"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Submit and track orders for a manifest of areas",
	}

	batchCmd.AddCommand(newBatchSubmitCommand(ctx))
	batchCmd.AddCommand(newBatchStatusCommand(ctx))
	batchCmd.AddCommand(newBatchListCommand(ctx))

	return batchCmd
}

func newBatchSubmitCommand(ctx *commandContext) *cobra.Command {
	var manifestPath string
	var maxMonths int
	var dryRun bool
	var skipExisting bool
	var bands string
	var bundle string
	var cadence string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit chunked orders for every manifest entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			release, err := ctx.acquireLock()
			if err != nil {
				return err
			}
			defer release()

			opts := pipeline.BatchSubmitOptions{
				BundleOverride: bundle,
				MaxMonths:      maxMonths,
				DryRun:         dryRun,
				SkipExisting:   skipExisting,
			}
			if strings.TrimSpace(bands) != "" {
				opts.Bands, err = catalog.ParseBands(bands)
				if err != nil {
					return err
				}
			}
			if strings.TrimSpace(cadence) != "" {
				opts.Cadence, err = daterange.ParseCadence(cadence)
				if err != nil {
					return err
				}
			}

			p, err := ctx.pipelineValue()
			if err != nil {
				return err
			}
			report, err := p.BatchSubmit(cmd.Context(), manifestPath, opts)
			if report != nil {
				printBatchSubmitReport(cmd.OutOrStdout(), report)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "YAML manifest of areas and windows")
	_ = cmd.MarkFlagRequired("manifest")
	cmd.Flags().IntVar(&maxMonths, "max-months", 0, "Largest chunk size in months (0 uses the configured default)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Prepare every chunk without submitting")
	cmd.Flags().BoolVar(&skipExisting, "skip-existing", false, "Skip chunks an existing order already covers")
	cmd.Flags().StringVar(&bands, "bands", "", "Band set: four_bands or eight_bands")
	cmd.Flags().StringVar(&bundle, "bundle", "", "Override the asset bundle for the whole batch")
	cmd.Flags().StringVar(&cadence, "cadence", "", "Selection cadence: daily, weekly, or monthly")
	return cmd
}

func printBatchSubmitReport(out io.Writer, report *pipeline.BatchSubmitReport) {
	fmt.Fprintf(out, "Batch %s: %d manifest entries, %d chunks prepared\n",
		report.BatchID, report.Entries, report.Prepared)
	if report.DryRun {
		fmt.Fprintf(out, "Dry run: %d chunks would be submitted\n", len(report.Submitted))
	} else {
		fmt.Fprintf(out, "Submitted %d orders\n", len(report.Submitted))
	}
	printBucket(out, "Skipped", report.Skipped)
	printBucket(out, "No scenes", report.NoScenes)
	printBucket(out, "Invalid entries", report.Invalid)
	printBucket(out, "Failed", report.Failed)
}

func newBatchStatusCommand(ctx *commandContext) *cobra.Command {
	var force bool
	var dl downloadFlags

	cmd := &cobra.Command{
		Use:   "status BATCH_ID",
		Short: "Poll every order in a batch and fetch finished artifacts",
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
			report, err := p.BatchCheck(cmd.Context(), args[0], pipeline.BatchCheckOptions{
				Force: force,
				Download: pipeline.DownloadOptions{
					Dest:      dest,
					Overwrite: dl.overwriteValue(cfg),
					OnResult:  progress.OnResult,
				},
			})
			progress.Finish()
			if report != nil {
				printBatchCheckReport(cmd.OutOrStdout(), report)
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Re-check orders already recorded as successful")
	dl.register(cmd)
	return cmd
}

func printBatchCheckReport(out io.Writer, report *pipeline.BatchCheckReport) {
	if report.Orders == 0 {
		fmt.Fprintf(out, "No orders recorded for batch %s\n", report.BatchID)
		if len(report.Available) > 0 {
			fmt.Fprintln(out, "Known batches:")
			fmt.Fprintln(out, renderTable(batchTableHeader, batchTableRows(report.Available), 2))
		}
		return
	}

	fmt.Fprintf(out, "Batch %s: %d orders\n", report.BatchID, report.Orders)
	printBucket(out, "Success", report.Success)
	printBucket(out, "Partial", report.Partial)
	printBucket(out, "Pending", report.Pending)
	printBucket(out, "Failed", report.Failed)
	printBucket(out, "Cancelled", report.Cancelled)
	printBucket(out, "Skipped", report.Skipped)
	if report.Summary.Total() > 0 {
		fmt.Fprintf(out, "Files: %s\n", report.Summary)
	}
}

func newBatchListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded batches",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.storeValue()
			if err != nil {
				return err
			}
			batches, err := store.ListBatches(cmd.Context())
			if err != nil {
				return err
			}
			if len(batches) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No batches recorded")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(batchTableHeader, batchTableRows(batches), 2))
			return nil
		},
	}
}
