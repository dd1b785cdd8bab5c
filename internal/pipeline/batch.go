package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"skyhaul/internal/aoi"
	"skyhaul/internal/catalog"
	"skyhaul/internal/daterange"
	"skyhaul/internal/logging"
	"skyhaul/internal/orders"
	"skyhaul/internal/transfer"
)

// BatchEntry is one area in a batch manifest. The label defaults to the
// GeoJSON file name.
type BatchEntry struct {
	Label   string `yaml:"label"`
	GeoJSON string `yaml:"geojson"`
	Start   string `yaml:"start"`
	End     string `yaml:"end"`
}

// ReadManifest loads a batch manifest: a YAML list of entries whose geojson
// paths resolve relative to the manifest file.
func ReadManifest(path string) ([]BatchEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var entries []BatchEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	base := filepath.Dir(path)
	for i := range entries {
		if entries[i].GeoJSON != "" && !filepath.IsAbs(entries[i].GeoJSON) {
			entries[i].GeoJSON = filepath.Join(base, entries[i].GeoJSON)
		}
	}
	return entries, nil
}

// BatchSubmitOptions adjusts a batch submission.
type BatchSubmitOptions struct {
	Bands          catalog.Bands
	BundleOverride string
	Cadence        daterange.Cadence
	// MaxMonths caps each order's window. Zero uses the configured default.
	MaxMonths int
	// DryRun prices every chunk without submitting anything.
	DryRun bool
	// SkipExisting drops chunks whose window already has a completed or
	// pending order.
	SkipExisting bool
}

// BatchSubmitReport counts the fate of every prepared chunk. Bucket entries
// read "<label> <start> to <end>".
type BatchSubmitReport struct {
	BatchID   string
	Entries   int
	Prepared  int
	DryRun    bool
	Submitted []string
	Skipped   []string
	NoScenes  []string
	Invalid   []string
	Failed    []string
}

type batchJob struct {
	label  string
	area   *aoi.AOI
	window daterange.Range
}

// BatchSubmit expands a manifest into per-chunk scene orders under one
// batch id. Entries that fail validation are reported and skipped; the rest
// of the batch continues. The whole batch shares one bundle, resolved from
// the earliest chunk year.
func (p *Pipeline) BatchSubmit(ctx context.Context, manifestPath string, opts BatchSubmitOptions) (*BatchSubmitReport, error) {
	entries, err := ReadManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	maxMonths := opts.MaxMonths
	if maxMonths <= 0 {
		maxMonths = p.cfg.Search.MaxChunkMonths
	}

	report := &BatchSubmitReport{
		BatchID: uuid.NewString(),
		Entries: len(entries),
		DryRun:  opts.DryRun,
	}

	var jobs []batchJob
	for i, entry := range entries {
		label := strings.TrimSpace(entry.Label)
		window, err := daterange.Parse(entry.Start, entry.End)
		if err != nil {
			p.logger.Warn("skipping manifest entry",
				logging.String("entry", describeEntry(entry, i)),
				logging.Error(err))
			report.Invalid = append(report.Invalid, describeEntry(entry, i))
			continue
		}
		area, err := aoi.Load(entry.GeoJSON)
		if err != nil {
			p.logger.Warn("skipping manifest entry",
				logging.String("entry", describeEntry(entry, i)),
				logging.Error(err))
			report.Invalid = append(report.Invalid, describeEntry(entry, i))
			continue
		}
		if label == "" {
			label = area.Label
		}
		for _, chunk := range window.Subdivide(maxMonths) {
			jobs = append(jobs, batchJob{label: label, area: area, window: chunk})
		}
	}
	report.Prepared = len(jobs)

	earliest := 0
	for _, job := range jobs {
		if year := job.window.Start.Year(); earliest == 0 || year < earliest {
			earliest = year
		}
	}
	bands := opts.Bands
	if bands == "" {
		bands = catalog.BandsFour
	}
	bundle := catalog.SearchBundle(bands, earliest, opts.BundleOverride)

	p.logger.Info("batch prepared",
		logging.String("batch_id", report.BatchID),
		logging.Int("entries", len(entries)),
		logging.Int("orders", len(jobs)),
		logging.String("bundle", bundle),
		logging.Bool("dry_run", opts.DryRun))

	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		name := job.label + " " + job.window.String()

		if opts.SkipExisting {
			dedup, err := p.Dedup(ctx, job.label, job.window)
			if err != nil {
				p.logger.Warn("batch order failed", logging.String("order", name), logging.Error(err))
				report.Failed = append(report.Failed, name)
				continue
			}
			if dedup.State != DedupNone {
				p.logger.Info("window already ordered, skipping",
					logging.String("order", name),
					logging.String("state", string(dedup.State)))
				report.Skipped = append(report.Skipped, name)
				continue
			}
		}

		plan, err := p.PrepareScenes(ctx, job.area, job.window, bands, bundle, opts.Cadence)
		if err != nil {
			p.logger.Warn("batch order failed", logging.String("order", name), logging.Error(err))
			report.Failed = append(report.Failed, name)
			continue
		}
		plan.Label = job.label
		if !plan.HasScenes() {
			report.NoScenes = append(report.NoScenes, name)
			continue
		}

		if opts.DryRun {
			p.logger.Info("would submit",
				logging.String("order", name),
				logging.Int("found", plan.ScenesFound),
				logging.Int("selected", len(plan.Selected)),
				logging.Float64("quota_hectares", plan.QuotaHectares))
			report.Submitted = append(report.Submitted, name)
			continue
		}

		order, err := p.SubmitScenes(ctx, plan, SubmitOptions{BatchID: report.BatchID})
		if err != nil {
			p.logger.Warn("batch order failed", logging.String("order", name), logging.Error(err))
			report.Failed = append(report.Failed, name)
			continue
		}
		p.logger.Info("batch order submitted",
			logging.String("order_id", order.ID),
			logging.String("order", name))
		report.Submitted = append(report.Submitted, name)
	}

	return report, nil
}

func describeEntry(entry BatchEntry, index int) string {
	if label := strings.TrimSpace(entry.Label); label != "" {
		return label
	}
	if entry.GeoJSON != "" {
		return filepath.Base(entry.GeoJSON)
	}
	return fmt.Sprintf("entry %d", index+1)
}

// BatchCheckOptions adjusts a batch status sweep. Leaving the download
// destination unset turns the sweep into a status-only poll.
type BatchCheckOptions struct {
	// Force re-checks orders that already completed.
	Force    bool
	Download DownloadOptions
}

// BatchCheckReport buckets every order in a batch by the outcome of its
// check.
type BatchCheckReport struct {
	BatchID   string
	Orders    int
	Success   []string
	Partial   []string
	Pending   []string
	Failed    []string
	Cancelled []string
	Skipped   []string
	// Summary accumulates file counts across every download in the sweep.
	Summary transfer.Summary
	// Available lists known batches when the requested one has no orders.
	Available []orders.BatchSummary
}

// BatchCheck polls every order in a batch and downloads the ones with
// artifacts. Completed orders are skipped unless force is set; failed and
// cancelled orders are never re-checked. An unknown batch id returns the
// known batches instead of an error.
func (p *Pipeline) BatchCheck(ctx context.Context, batchID string, opts BatchCheckOptions) (*BatchCheckReport, error) {
	list, err := p.store.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("batch check: %w", err)
	}

	report := &BatchCheckReport{BatchID: batchID, Orders: len(list)}
	if len(list) == 0 {
		batches, err := p.store.ListBatches(ctx)
		if err != nil {
			return nil, fmt.Errorf("batch check: %w", err)
		}
		report.Available = batches
		return report, nil
	}

	for i, order := range list {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		log := p.logger.With(
			logging.String("order_id", order.ID),
			logging.String("aoi", order.AOILabel))
		log.Info("checking order", logging.Int("index", i+1), logging.Int("of", len(list)))

		if !opts.Force && order.Status == orders.StatusSuccess {
			report.Skipped = append(report.Skipped, order.ID)
			continue
		}
		switch order.Status {
		case orders.StatusFailed:
			report.Failed = append(report.Failed, order.ID)
			continue
		case orders.StatusCancelled:
			report.Cancelled = append(report.Cancelled, order.ID)
			continue
		}

		updated, status, err := p.Poll(ctx, order)
		if err != nil {
			log.Warn("status check failed", logging.Error(err))
			report.Failed = append(report.Failed, order.ID)
			continue
		}

		state, ok := orders.ParseStatus(status.State)
		if !ok {
			report.Pending = append(report.Pending, order.ID)
			continue
		}

		switch {
		case state.IsDownloadable():
			if len(status.Links.Results) == 0 {
				log.Warn("no downloadable files")
				report.Failed = append(report.Failed, order.ID)
				continue
			}
			if opts.Download.Dest != nil {
				download, err := p.Download(ctx, updated, status, opts.Download)
				if err != nil {
					log.Warn("download failed", logging.Error(err))
					report.Failed = append(report.Failed, order.ID)
					continue
				}
				report.Summary.Add(download.Summary)
			}
			if state == orders.StatusPartial {
				report.Partial = append(report.Partial, order.ID)
			} else {
				report.Success = append(report.Success, order.ID)
			}
		case state.NeedsPoll():
			report.Pending = append(report.Pending, order.ID)
		case state == orders.StatusFailed:
			log.Warn("order failed",
				logging.String("hints", strings.Join(status.ErrorHints, ", ")))
			report.Failed = append(report.Failed, order.ID)
		case state == orders.StatusCancelled:
			report.Cancelled = append(report.Cancelled, order.ID)
		}
	}

	return report, nil
}
